package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/loom/internal/event"
	"github.com/roach88/loom/internal/platform"
)

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name string
		cmd  interface{ String() string }
		want string
	}{
		{"io window", WindowEvent(platform.Resized(80, 24)), "WindowEvent(Resized 80x24)"},
		{"io title", SetTitle("loom"), `SetTitle("loom")`},
		{"gui resize", GUI{Kind: GUIResize, Size: platform.Size{Width: 4, Height: 2}, Scale: 1}, "Resize(4x2@1)"},
		{"gui input", GUI{Kind: GUIInput, Input: platform.KeyInput("q")}, "Input(key q)"},
		{"gui focus", GUI{Kind: GUIFocus, Focused: true}, "Focus(true)"},
		{"gui frame", GUI{Kind: GUIFrameDone, Frame: platform.Frame{Seq: 3}}, "FrameDone(#3)"},
		{"render resize", Render{Kind: RenderResize, Size: platform.Size{Width: 4, Height: 2}, Scale: 2}, "Resize(4x2@2)"},
		{"render frame", Render{Kind: RenderFrame}, "Frame"},
		{"render draw", Render{Kind: RenderDrawUI, Paint: event.Paint{Version: 7}}, "DrawUI(v7)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestKinds_StringUnknown(t *testing.T) {
	assert.Equal(t, "IOKind(0)", IOKind(0).String())
	assert.Equal(t, "GUIKind(9)", GUIKind(9).String())
	assert.Equal(t, "RenderKind(9)", RenderKind(9).String())
}
