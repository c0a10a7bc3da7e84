package nodelink

import (
	"bytes"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
)

// scene is the retained state a snapshot renders: data plus view flags.
type scene struct {
	data        graph.Data
	opts        render.Options
	physics     bool
	layout      graph.Layout
	highlighted map[string]bool
	focus       string
}

// buildDOT converts a scene to Graphviz DOT. Nodes are emitted sorted by ID
// for deterministic output; edges keep their insertion order. Edges whose
// endpoints don't resolve are skipped silently.
func buildDOT(s scene) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  size=\"%.2f,%.2f!\";\n", float64(s.opts.Width)/96, float64(s.opts.Height)/96)
	fmt.Fprintf(&buf, "  dpi=%.0f;\n", 96*s.opts.Scale)
	fmt.Fprintf(&buf, "  node [style=\"filled\", fontcolor=\"#ffffff\", fontsize=%.0f, margin=\"0.15,0.1\"];\n", s.opts.NodeSize)

	switch s.layout {
	case graph.LayoutHierarchical:
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	default:
		// fdp reads start: a random seed keeps the simulation live between
		// renders, a fixed one pins the placement.
		if s.physics {
			buf.WriteString("  start=\"random\";\n")
		} else {
			buf.WriteString("  start=\"1\";\n")
		}
	}
	buf.WriteString("\n")

	nodes := slices.Clone(s.data.Nodes)
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, s), ", "))
	}

	if ranks := tierRanks(nodes, s.layout); ranks != "" {
		buf.WriteString("\n")
		buf.WriteString(ranks)
	}

	buf.WriteString("\n")
	for _, e := range s.data.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e, s), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, s scene) []string {
	style := graph.NodeStyle(n, graph.NodeEmphasis(n.ID, s.highlighted))

	attrs := []string{
		fmt.Sprintf("label=%q", n.DisplayLabel()),
		fmt.Sprintf("shape=%s", dotShape(style.Shape)),
		fmt.Sprintf("fillcolor=%q", withOpacity(style.Fill, style.Opacity)),
		fmt.Sprintf("color=%q", withOpacity(style.Stroke, style.Opacity)),
		fmt.Sprintf("fontcolor=%q", withOpacity("#ffffff", style.Opacity)),
	}
	if n.ID == s.focus {
		attrs = append(attrs, "penwidth=3")
	}
	if n.Pinned {
		// Honored by fdp when positions are present; harmless otherwise.
		attrs = append(attrs, "pin=true")
	}
	return attrs
}

func edgeAttrs(e graph.Edge, s scene) []string {
	style := graph.EdgeStyle(e, graph.EdgeEmphasis(e, s.highlighted))

	attrs := []string{
		fmt.Sprintf("color=%q", withOpacity(style.Stroke, style.Opacity)),
		fmt.Sprintf("penwidth=%.2f", s.opts.EdgeWidth*style.Width),
	}
	if e.Label != "" {
		attrs = append(attrs,
			fmt.Sprintf("label=%q", e.Label),
			fmt.Sprintf("fontcolor=%q", withOpacity(style.Stroke, style.Opacity)),
			fmt.Sprintf("fontsize=%.0f", s.opts.NodeSize*0.6),
		)
	}
	return attrs
}

// tierRanks emits rank=same groups for explicit tier hints. Only layered
// layouts honor tiers; force layouts ignore them.
func tierRanks(nodes []graph.Node, layout graph.Layout) string {
	if layout != graph.LayoutHierarchical {
		return ""
	}
	tiers := make(map[int][]string)
	for _, n := range nodes {
		if n.Tier != 0 {
			tiers[n.Tier] = append(tiers[n.Tier], n.ID)
		}
	}
	if len(tiers) == 0 {
		return ""
	}

	var buf bytes.Buffer
	for _, tier := range slices.Sorted(maps.Keys(tiers)) {
		buf.WriteString("  { rank=same;")
		for _, id := range tiers[tier] {
			fmt.Fprintf(&buf, " %q;", id)
		}
		buf.WriteString(" }\n")
	}
	return buf.String()
}

// dotShape translates the shared shape vocabulary to Graphviz shape names.
func dotShape(shape string) string {
	switch shape {
	case graph.ShapeDiamond:
		return "diamond"
	case graph.ShapeSquare:
		return "box"
	default:
		return "circle"
	}
}

// withOpacity appends an alpha channel to a #RRGGBB color when the element
// is de-emphasized. Graphviz accepts #RRGGBBAA.
func withOpacity(hex string, opacity float64) string {
	if opacity >= 1 {
		return hex
	}
	if opacity < 0 {
		opacity = 0
	}
	return fmt.Sprintf("%s%02x", hex, int(opacity*255+0.5))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the <svg> tag so the viewBox starts at origin
// and width/height are plain pixels rather than points.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
