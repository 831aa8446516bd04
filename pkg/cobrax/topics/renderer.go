package topics

import "github.com/charmbracelet/glamour"

// Renderer formats topic content for display.
type Renderer interface {
	Render(content string) string
}

// PlainRenderer passes content through unchanged.
type PlainRenderer struct{}

func (r *PlainRenderer) Render(content string) string { return content }

// GlamourRenderer renders markdown topics with terminal styling,
// falling back to the raw content on any rendering error.
type GlamourRenderer struct {
	Width int
}

func (r *GlamourRenderer) Render(content string) string {
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if r.Width > 0 {
		options = append(options, glamour.WithWordWrap(r.Width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
