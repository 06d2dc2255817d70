package repo

import (
	"encoding/json"
	"sort"
)

// Info carries the repository statistics reported alongside the summary.
type Info struct {
	TotalFiles   int      `json:"total_files"`
	HasReadme    bool     `json:"has_readme"`
	ReadmeSample string   `json:"readme_sample,omitempty"`
	KeyFiles     []string `json:"key_files,omitempty"`
}

// Data is the result of one successful analyze call. It is replaced
// wholesale on every new analysis.
type Data struct {
	Summary   string          `json:"summary"`
	Languages map[string]int  `json:"languages"`
	Info      *Info           `json:"repo_info,omitempty"`
	Files     []string        `json:"files,omitempty"`
	Structure json.RawMessage `json:"structure,omitempty"`
	// Message is the service status line, e.g. "Repository loaded from cache".
	Message string `json:"message,omitempty"`
}

// LanguageCount pairs a language with its file count.
type LanguageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SortedLanguages orders languages by count, then name.
func (d *Data) SortedLanguages() []LanguageCount {
	if d == nil {
		return nil
	}
	out := make([]LanguageCount, 0, len(d.Languages))
	for name, count := range d.Languages {
		out = append(out, LanguageCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Clone returns a deep copy safe to hand out of a locked owner.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}

	out := *d
	if d.Languages != nil {
		out.Languages = make(map[string]int, len(d.Languages))
		for k, v := range d.Languages {
			out.Languages[k] = v
		}
	}
	if d.Info != nil {
		info := *d.Info
		info.KeyFiles = append([]string(nil), d.Info.KeyFiles...)
		out.Info = &info
	}
	out.Files = append([]string(nil), d.Files...)
	out.Structure = append(json.RawMessage(nil), d.Structure...)
	return &out
}
