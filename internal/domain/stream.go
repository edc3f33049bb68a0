package domain

type Stream struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	InfoHash string   `json:"infoHash"`
	Title    string   `json:"title"`
	Sources  []string `json:"sources,omitempty"`
}

type StreamResponse struct {
	Streams []Stream `json:"streams"`
}

func EmptyStreamResponse() StreamResponse {
	return StreamResponse{Streams: []Stream{}}
}
