package render

import (
	"errors"
	"testing"

	"github.com/vizhost/vizhost/pkg/graph"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "png", want: FormatPNG},
		{in: "svg", want: FormatSVG},
		{in: "html", want: FormatHTML},
		{in: "pdf", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("err = %v, want ErrUnknownFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatContentType(t *testing.T) {
	if ct := FormatPNG.ContentType(); ct != "image/png" {
		t.Errorf("png content type = %q", ct)
	}
	if ct := FormatSVG.ContentType(); ct != "image/svg+xml" {
		t.Errorf("svg content type = %q", ct)
	}
	if ct := Format("bogus").ContentType(); ct != "application/octet-stream" {
		t.Errorf("unknown content type = %q", ct)
	}
}

func TestOptionsNormalized(t *testing.T) {
	got := Options{}.Normalized()

	if got.Width != DefaultWidth || got.Height != DefaultHeight {
		t.Errorf("dimensions = %dx%d, want %dx%d", got.Width, got.Height, DefaultWidth, DefaultHeight)
	}
	if got.NodeSize != DefaultNodeSize {
		t.Errorf("node size = %v, want %v", got.NodeSize, DefaultNodeSize)
	}
	if got.EdgeWidth != 1 {
		t.Errorf("edge width = %v, want 1", got.EdgeWidth)
	}
	if got.Scale != 1 {
		t.Errorf("scale = %v, want 1", got.Scale)
	}
	if got.Layout != graph.LayoutForce {
		t.Errorf("layout = %q, want %q", got.Layout, graph.LayoutForce)
	}

	// Explicit values survive normalization.
	custom := Options{Width: 100, Height: 50, Scale: 2, NodeSize: 8, EdgeWidth: 2, Layout: graph.LayoutHierarchical}
	if got := custom.Normalized(); got != custom {
		t.Errorf("normalized = %+v, want %+v", got, custom)
	}
}
