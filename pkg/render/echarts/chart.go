package echarts

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/render"
)

// scene is the retained state a snapshot renders: data plus view flags.
type scene struct {
	data        graph.Data
	opts        render.Options
	physics     bool
	highlighted map[string]bool
	focus       string
	chartID     string
	assetsHost  string
}

// buildChart converts a scene to a go-echarts graph chart. The typed series
// carries the baseline nodes and links; an injected setOption call layers on
// the per-element styling the typed options cannot express (edge colors,
// labels, arrows, dimming).
func buildChart(s scene) *charts.Graph {
	nodes := sortedNodes(s.data)

	var seriesNodes []opts.GraphNode
	var seriesLinks []opts.GraphLink
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
		seriesNodes = append(seriesNodes, opts.GraphNode{
			Name:       n.ID,
			Value:      float32(n.Value),
			Fixed:      opts.Bool(n.Pinned),
			Symbol:     chartSymbol(graph.NodeStyle(n, graph.EmphasisNormal).Shape),
			SymbolSize: nodeSize(n, n.ID == s.focus, s.opts),
		})
	}
	for _, e := range s.data.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		seriesLinks = append(seriesLinks, opts.GraphLink{
			Source: e.From,
			Target: e.To,
			Value:  float32(e.Weight),
		})
	}

	chart := charts.NewGraph()
	init := opts.Initialization{
		PageTitle: "vizhost",
		Width:     fmt.Sprintf("%dpx", s.opts.Width),
		Height:    fmt.Sprintf("%dpx", s.opts.Height),
		ChartID:   s.chartID,
	}
	if s.assetsHost != "" {
		init.AssetsHost = s.assetsHost
	}
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	chart.AddSeries(
		"graph",
		seriesNodes,
		seriesLinks,
		charts.WithGraphChartOpts(chartLayout(s)),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "top",
		}),
	)
	chart.AddJSFuncs(overrideJS(s, nodes))
	if js := focusJS(s, nodes); js != "" {
		chart.AddJSFuncs(js)
	}
	return chart
}

// chartLayout picks the series layout. Physics drives a live force
// simulation; without it nodes fall back to a static circular placement
// since no stored coordinates exist to pin them with.
func chartLayout(s scene) opts.GraphChart {
	gc := opts.GraphChart{
		Roam:      opts.Bool(true),
		Draggable: opts.Bool(true),
	}
	if s.physics {
		gc.Layout = "force"
		gc.Force = &opts.GraphForce{Repulsion: 400, EdgeLength: 80}
	} else {
		gc.Layout = "circular"
	}
	return gc
}

// Enriched element payloads pushed through setOption after chart init.
type jsNode struct {
	Name       string      `json:"name"`
	Value      float64     `json:"value,omitempty"`
	Fixed      bool        `json:"fixed,omitempty"`
	Symbol     string      `json:"symbol"`
	SymbolSize float64     `json:"symbolSize"`
	ItemStyle  jsItemStyle `json:"itemStyle"`
	Label      *jsLabel    `json:"label,omitempty"`
}

type jsLink struct {
	Source    string      `json:"source"`
	Target    string      `json:"target"`
	Value     float64     `json:"value,omitempty"`
	Label     *jsLabel    `json:"label,omitempty"`
	LineStyle jsLineStyle `json:"lineStyle"`
}

type jsItemStyle struct {
	Color       string  `json:"color"`
	BorderColor string  `json:"borderColor"`
	Opacity     float64 `json:"opacity"`
}

type jsLineStyle struct {
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

type jsLabel struct {
	Show      bool   `json:"show"`
	Formatter string `json:"formatter"`
}

// overrideJS emits a setOption call that re-sends the series elements with
// full styling: role colors, highlight dimming, edge strokes, labels, and
// directed arrow heads.
func overrideJS(s scene, nodes []graph.Node) string {
	known := make(map[string]bool, len(nodes))
	jsNodes := make([]jsNode, 0, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
		style := graph.NodeStyle(n, graph.NodeEmphasis(n.ID, s.highlighted))
		jn := jsNode{
			Name:       n.ID,
			Value:      n.Value,
			Fixed:      n.Pinned,
			Symbol:     chartSymbol(style.Shape),
			SymbolSize: nodeSize(n, n.ID == s.focus, s.opts),
			ItemStyle: jsItemStyle{
				Color:       style.Fill,
				BorderColor: style.Stroke,
				Opacity:     style.Opacity,
			},
		}
		if n.Label != "" {
			jn.Label = &jsLabel{Show: true, Formatter: n.Label}
		}
		jsNodes = append(jsNodes, jn)
	}

	jsLinks := make([]jsLink, 0, len(s.data.Edges))
	for _, e := range s.data.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		style := graph.EdgeStyle(e, graph.EdgeEmphasis(e, s.highlighted))
		jl := jsLink{
			Source: e.From,
			Target: e.To,
			Value:  e.Weight,
			LineStyle: jsLineStyle{
				Color:   style.Stroke,
				Width:   s.opts.EdgeWidth * style.Width,
				Opacity: style.Opacity,
			},
		}
		if e.Label != "" {
			jl.Label = &jsLabel{Show: true, Formatter: e.Label}
		}
		jsLinks = append(jsLinks, jl)
	}

	nodesJSON, _ := json.Marshal(jsNodes)
	linksJSON, _ := json.Marshal(jsLinks)
	return fmt.Sprintf(
		`goecharts_%s.setOption({"series":[{"edgeSymbol":["none","arrow"],"edgeSymbolSize":8,"data":%s,"links":%s}]});`,
		s.chartID, nodesJSON, linksJSON,
	)
}

// focusJS highlights the focused node's neighborhood after init.
func focusJS(s scene, nodes []graph.Node) string {
	if s.focus == "" {
		return ""
	}
	idx := slices.IndexFunc(nodes, func(n graph.Node) bool { return n.ID == s.focus })
	if idx < 0 {
		return ""
	}
	return fmt.Sprintf(
		`goecharts_%s.dispatchAction({"type":"focusNodeAdjacency","seriesIndex":0,"dataIndex":%d});`,
		s.chartID, idx,
	)
}

func sortedNodes(d graph.Data) []graph.Node {
	nodes := slices.Clone(d.Nodes)
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return nodes
}

// nodeSize scales the base symbol size by the node's value and bumps the
// focused node so it stands out.
func nodeSize(n graph.Node, focused bool, o render.Options) float64 {
	size := o.NodeSize
	if n.Value > 0 {
		size *= 1 + math.Min(n.Value, 10)/5
	}
	if focused {
		size *= 1.5
	}
	return size
}

// chartSymbol translates the shared shape vocabulary to ECharts symbols.
func chartSymbol(shape string) string {
	switch shape {
	case graph.ShapeDiamond:
		return "diamond"
	case graph.ShapeSquare:
		return "rect"
	default:
		return "circle"
	}
}

// chartID derives a JS-safe identifier from a surface ID.
func chartID(surfaceID string) string {
	var b strings.Builder
	for _, r := range surfaceID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "c" + id
	}
	return id
}
