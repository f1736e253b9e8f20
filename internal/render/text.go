package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/loom/internal/platform"
)

var statusStyle = lipgloss.NewStyle().Faint(true)

// TextRenderer composes frames for a character-cell surface. Layers are
// stacked vertically and centred; the bottom row carries a status line.
type TextRenderer struct {
	size       platform.Size
	scale      float64
	configured bool
	status     bool
}

// NewTextRenderer creates an unconfigured renderer. With status set, the last
// row shows the surface size.
func NewTextRenderer(status bool) *TextRenderer {
	return &TextRenderer{status: status}
}

func (r *TextRenderer) Configure(size platform.Size, scale float64) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("invalid surface size %s", size)
	}
	r.size, r.scale = size, scale
	r.configured = true
	return nil
}

// Invalidate drops the configuration, as a lost surface would.
func (r *TextRenderer) Invalidate() {
	r.configured = false
}

func (r *TextRenderer) Compose(_ context.Context, layers []Layer) (string, error) {
	if !r.configured {
		return "", ErrSurfaceLost
	}

	parts := make([]string, 0, len(layers))
	for _, l := range layers {
		if l.Content != "" {
			parts = append(parts, l.Content)
		}
	}
	body := lipgloss.JoinVertical(lipgloss.Center, parts...)

	if r.size.IsZero() {
		return body, nil
	}

	height := r.size.Height
	var status string
	if r.status && height > 1 {
		height--
		status = statusStyle.Render(fmt.Sprintf("%s @%gx", r.size, r.scale))
	}

	out := lipgloss.Place(r.size.Width, height, lipgloss.Center, lipgloss.Center, body)
	if status != "" {
		out = strings.Join([]string{out, status}, "\n")
	}
	return out, nil
}
