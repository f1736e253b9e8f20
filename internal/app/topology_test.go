package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loom/internal/gui"
	"github.com/roach88/loom/internal/render"
	"github.com/roach88/loom/internal/window"
)

func TestTopology_Cycles(t *testing.T) {
	tests := []struct {
		name string
		topo Topology
		want []Cycle
	}{
		{"empty", Topology{}, nil},
		{"chain", Topology{"a": {"b"}, "b": {"c"}, "c": nil}, nil},
		{"self loop", Topology{"a": {"a"}}, []Cycle{{"a"}}},
		{"pair", Topology{"a": {"b"}, "b": {"a"}, "c": {"a"}}, []Cycle{{"a", "b"}}},
		{
			"two cycles",
			Topology{"d": {"c"}, "c": {"d"}, "b": {"a"}, "a": {"b", "c"}},
			[]Cycle{{"a", "b"}, {"c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.topo.Cycles())
		})
	}
}

func TestCycle_String(t *testing.T) {
	assert.Equal(t, "gui -> render -> gui", Cycle{"gui", "render"}.String())
	assert.Equal(t, "", Cycle{}.String())
}

func TestApp_Topology(t *testing.T) {
	a, err := New(loadScript(t, "steps: []\n"), Options{})
	require.NoError(t, err)

	topo := a.Topology()
	assert.Equal(t, []string{render.Name, gui.Name}, topo[window.Name])
	assert.Equal(t, []string{render.Name, window.Name}, topo[gui.Name])
	assert.Equal(t, []string{gui.Name}, topo[render.Name])

	cycles := topo.Cycles()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{window.Name, gui.Name, render.Name}, cycles[0])
}
