// Package tips serves the static financial tips catalogue embedded in the
// binary.
package tips

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Tip struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

//go:embed tips.yaml
var catalogue []byte

var (
	loadOnce sync.Once
	loaded   []Tip
	loadErr  error
)

// All returns the tips in catalogue order. The slice is a copy.
func All() ([]Tip, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(catalogue)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Tip, len(loaded))
	copy(out, loaded)
	return out, nil
}

// Parse decodes a YAML list of tips, rejecting entries without a title or
// content.
func Parse(data []byte) ([]Tip, error) {
	var list []Tip
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode tips: %w", err)
	}
	for i, t := range list {
		if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.Content) == "" {
			return nil, fmt.Errorf("tip %d: title and content are required", i+1)
		}
	}
	return list, nil
}

// Markdown renders the tips as a numbered markdown document.
func Markdown(list []Tip) string {
	var b strings.Builder
	b.WriteString("# Financial tips\n\n")
	for i, t := range list {
		fmt.Fprintf(&b, "## %d. %s\n\n%s\n\n", i+1, t.Title, t.Content)
	}
	return b.String()
}
