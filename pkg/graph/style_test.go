package graph

import "testing"

func TestNodeEmphasis(t *testing.T) {
	highlighted := map[string]bool{"a": true, "b": true}

	if got := NodeEmphasis("a", nil); got != EmphasisNormal {
		t.Errorf("no highlight active: got %v, want EmphasisNormal", got)
	}
	if got := NodeEmphasis("a", highlighted); got != EmphasisHighlighted {
		t.Errorf("member: got %v, want EmphasisHighlighted", got)
	}
	if got := NodeEmphasis("c", highlighted); got != EmphasisDimmed {
		t.Errorf("non-member: got %v, want EmphasisDimmed", got)
	}
}

func TestEdgeEmphasis(t *testing.T) {
	highlighted := map[string]bool{"a": true, "b": true}

	tests := []struct {
		name string
		edge Edge
		want Emphasis
	}{
		{name: "BothEndpointsIn", edge: Edge{From: "a", To: "b"}, want: EmphasisHighlighted},
		{name: "OneEndpointIn", edge: Edge{From: "a", To: "c"}, want: EmphasisDimmed},
		{name: "NeitherIn", edge: Edge{From: "c", To: "d"}, want: EmphasisDimmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeEmphasis(tt.edge, highlighted); got != tt.want {
				t.Errorf("emphasis = %v, want %v", got, tt.want)
			}
		})
	}

	// An edge is on the highlighted path only while a highlight is active.
	if got := EdgeEmphasis(Edge{From: "c", To: "d"}, nil); got != EmphasisNormal {
		t.Errorf("no highlight active: got %v, want EmphasisNormal", got)
	}
}

func TestNodeStyle(t *testing.T) {
	entry := NodeStyle(Node{ID: "a", Role: RoleEntry}, EmphasisNormal)
	if entry.Shape != ShapeDiamond {
		t.Errorf("entry shape = %q, want %q", entry.Shape, ShapeDiamond)
	}

	terminal := NodeStyle(Node{ID: "b", Role: RoleTerminal}, EmphasisNormal)
	if terminal.Shape != ShapeSquare {
		t.Errorf("terminal shape = %q, want %q", terminal.Shape, ShapeSquare)
	}

	step := NodeStyle(Node{ID: "c"}, EmphasisNormal)
	if step.Shape != ShapeCircle {
		t.Errorf("step shape = %q, want %q", step.Shape, ShapeCircle)
	}
	if step.Opacity != 1 {
		t.Errorf("normal opacity = %v, want 1", step.Opacity)
	}

	dimmed := NodeStyle(Node{ID: "c"}, EmphasisDimmed)
	if dimmed.Opacity >= 1 {
		t.Errorf("dimmed opacity = %v, want < 1", dimmed.Opacity)
	}
	// De-emphasis dims; it never recolors or reshapes.
	if dimmed.Fill != step.Fill || dimmed.Shape != step.Shape {
		t.Error("dimming must not change fill or shape")
	}
}

func TestEdgeStyle(t *testing.T) {
	plain := EdgeStyle(Edge{From: "a", To: "b"}, EmphasisNormal)
	if plain.Width != 1 {
		t.Errorf("width = %v, want 1", plain.Width)
	}

	weighted := EdgeStyle(Edge{From: "a", To: "b", Weight: 2}, EmphasisNormal)
	if weighted.Width != 3 {
		t.Errorf("weighted width = %v, want 3", weighted.Width)
	}

	dimmed := EdgeStyle(Edge{From: "a", To: "b"}, EmphasisDimmed)
	if dimmed.Opacity >= plain.Opacity {
		t.Errorf("dimmed opacity = %v, want < %v", dimmed.Opacity, plain.Opacity)
	}
}
