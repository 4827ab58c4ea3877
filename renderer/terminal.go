package renderer

import (
	"github.com/charmbracelet/glamour"
)

// Terminal renders markdown for display in a terminal. The markdown is
// returned unchanged if it cannot be rendered.
func Terminal(markdown string, width int) string {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
