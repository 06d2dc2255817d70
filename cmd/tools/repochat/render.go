package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/repochat/web/internal/model/repo"
)

// renderMarkdown styles markdown for the terminal, falling back to the raw
// text when plain output is requested or glamour fails.
func renderMarkdown(markdown string, raw bool) string {
	if raw {
		return strings.TrimSpace(markdown)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return strings.TrimSpace(markdown)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return strings.TrimSpace(markdown)
	}
	return strings.TrimSpace(out)
}

func printRepo(w io.Writer, data *repo.Data, raw bool) {
	if data.Message != "" {
		fmt.Fprintf(w, "%s\n\n", data.Message)
	}
	fmt.Fprintln(w, renderMarkdown(data.Summary, raw))

	langs := data.SortedLanguages()
	if len(langs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Languages:")
		for _, l := range langs {
			fmt.Fprintf(w, "  %-16s %d\n", l.Name, l.Count)
		}
	}
	if data.Info != nil {
		readme := "no"
		if data.Info.HasReadme {
			readme = "yes"
		}
		fmt.Fprintf(w, "\nFiles: %d  README: %s\n", data.Info.TotalFiles, readme)
		if len(data.Info.KeyFiles) > 0 {
			fmt.Fprintf(w, "Key files: %s\n", strings.Join(data.Info.KeyFiles, ", "))
		}
	}
}
