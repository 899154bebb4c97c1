package app

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

func chooseRecordFZF(records []snapshot.Record) (snapshot.Record, error) {
	var input bytes.Buffer
	for _, r := range records {
		line := fmt.Sprintf("%s\t%s\t%s\t%ds/%dp\n", r.Name, r.Kind, r.CapturedAt.Local().Format(timeLayout), r.Surfaces, r.Panes)
		input.WriteString(line)
	}

	cmd := exec.Command("fzf", "--prompt", "lazy-layout> ", "--delimiter", "\t", "--with-nth", "1,2,3,4", "--height", "100%", "--layout", "reverse")
	cmd.Stdin = &input
	out, err := cmd.Output()
	if err != nil {
		return snapshot.Record{}, fmt.Errorf("fzf selection canceled or failed: %w", err)
	}

	selected := strings.TrimSpace(string(out))
	if selected == "" {
		return snapshot.Record{}, fmt.Errorf("no layout selected")
	}
	parts := strings.Split(selected, "\t")
	if len(parts) < 2 {
		return snapshot.Record{}, fmt.Errorf("invalid fzf output")
	}
	for _, r := range records {
		if r.Name == parts[0] && string(r.Kind) == parts[1] {
			return r, nil
		}
	}
	return snapshot.Record{}, fmt.Errorf("fzf returned unknown layout %q", parts[0])
}
