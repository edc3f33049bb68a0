package main

import (
	"testing"

	"github.com/spf13/cobra"

	"torrentstream/streamaddon/internal/domain"
)

func newTitleCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("type", "movie", "")
	cmd.Flags().String("id", "", "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestTitleFlags(t *testing.T) {
	kind, id, err := titleFlags(newTitleCommand(t, "--type", "series", "--id", "tt0944947:1:2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != domain.MediaKindSeries || id != "tt0944947:1:2" {
		t.Fatalf("unexpected flags: %q %q", kind, id)
	}

	if _, _, err := titleFlags(newTitleCommand(t, "--type", "movie")); err == nil {
		t.Fatalf("expected error without id")
	}
	if _, _, err := titleFlags(newTitleCommand(t, "--type", "channel", "--id", "tt1")); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"streams": false, "records": false, "indexers": false}
	for _, c := range rootCMD.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected %s command to be registered", name)
		}
	}
}
