package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vizhost/vizhost/pkg/cache"
	"github.com/vizhost/vizhost/pkg/frames"
	"github.com/vizhost/vizhost/pkg/graph"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/render"
	"github.com/vizhost/vizhost/pkg/render/echarts"
	"github.com/vizhost/vizhost/pkg/render/nodelink"
	"github.com/vizhost/vizhost/pkg/surface"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string  // output file path (or base path for multiple formats)
	backend string  // rendering backend: "nodelink" or "echarts"
	layout  string  // layout: "force" or "hierarchical"
	physics bool    // enable force simulation (echarts HTML export)
	width   int     // surface width in pixels
	height  int     // surface height in pixels
	scale   float64 // device pixel ratio for raster export
	noCache bool    // bypass the frame cache
}

// renderCommand creates the render command for one-shot graph rendering.
// It loads a graph JSON file, hosts it in a throwaway instance, and
// exports the requested formats - the same path a live server export
// takes, minus the HTTP layer.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		width:  render.DefaultWidth,
		height: render.DefaultHeight,
		scale:  1,
	}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph file to image formats",
		Long: `Render a graph JSON file to image formats.

The input is the same graph document the HTTP API accepts: a nodes
array (id, label, role, tier, value, pinned) and an edges array
(from, to, label, weight). Node roles drive styling - entry and
terminal nodes get distinct shapes and colors.

Formats: svg and png (nodelink backend renders via Graphviz; echarts
PNG needs a headless Chrome), and html (echarts only: a live chart
with the force simulation running client-side).

Exports are cached by graph content; re-rendering an unchanged file
is a cache hit. Use --no-cache to force a fresh render.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyRenderDefaults(cmd, &opts, cfg.Defaults)
			formats, err := parseFormats(formatsStr)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], formats, opts, cfg.Cache)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, html (comma-separated)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "rendering backend: nodelink (default), echarts")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "layout: force (default), hierarchical")
	cmd.Flags().BoolVar(&opts.physics, "physics", false, "enable the force simulation in HTML exports")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "surface width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "surface height in pixels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "device pixel ratio for raster export")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the frame cache")

	return cmd
}

// applyRenderDefaults overlays config-file defaults onto flags the user
// did not set.
func applyRenderDefaults(cmd *cobra.Command, opts *renderOpts, defaults registry.Config) {
	if !cmd.Flags().Changed("backend") && defaults.Backend != "" {
		opts.backend = defaults.Backend
	}
	if !cmd.Flags().Changed("layout") && defaults.Layout != "" {
		opts.layout = string(defaults.Layout)
	}
	if !cmd.Flags().Changed("physics") {
		opts.physics = defaults.Physics
	}
	if !cmd.Flags().Changed("width") && defaults.Width > 0 {
		opts.width = defaults.Width
	}
	if !cmd.Flags().Changed("height") && defaults.Height > 0 {
		opts.height = defaults.Height
	}
	if !cmd.Flags().Changed("scale") && defaults.Scale > 0 {
		opts.scale = defaults.Scale
	}
}

// parseFormats parses the --format flag into render formats.
func parseFormats(s string) ([]render.Format, error) {
	if s == "" {
		return []render.Format{render.FormatSVG}, nil
	}
	parts := strings.Split(s, ",")
	formats := make([]render.Format, 0, len(parts))
	for _, p := range parts {
		f, err := render.ParseFormat(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid format %q (must be 'png', 'svg', or 'html')", p)
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// runRender hosts the graph in a throwaway instance and exports every
// requested format.
func (c *CLI) runRender(ctx context.Context, input string, formats []render.Format, opts renderOpts, cacheCfg cacheConfig) error {
	data, err := graph.ReadDataFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	c.Logger.Debug("graph loaded", "nodes", len(data.Nodes), "edges", len(data.Edges))

	warnInvalidFlow(data)

	reg, err := registry.New(registry.Options{
		Engines:  []render.Engine{nodelink.New(), echarts.New(&echarts.ChromeCapturer{})},
		Resolver: surface.Static{Width: opts.width, Height: opts.height, DPR: opts.scale},
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}

	id := instanceID(input)
	cfg := registry.Config{
		Backend: opts.backend,
		Layout:  graph.Layout(opts.layout),
		Physics: opts.physics,
		Scale:   opts.scale,
	}
	if err := reg.Create(ctx, id, cfg); err != nil {
		return err
	}
	defer func() { _ = reg.DestroyAll(context.Background()) }()

	if err := reg.SetData(ctx, id, data); err != nil {
		return err
	}

	frameCache, err := newFrameCache(cacheCfg, opts.noCache)
	if err != nil {
		return err
	}
	runner := frames.NewRunner(reg, frameCache, cache.NewDefaultKeyer(), c.Logger)
	defer runner.Close()

	base := outputBase(opts.output, input)
	anyCached := false
	prog := newProgress(c.Logger)

	for _, format := range formats {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()

		frame, hit, err := runner.ExportWithCacheInfo(ctx, id, format)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("Render %s failed", format))
			return err
		}
		spinner.Stop()
		anyCached = anyCached || hit

		path := artifactPath(base, opts.output, format, len(formats))
		if err := writeArtifact(path, frame.Data); err != nil {
			return err
		}
		printFile(path)
	}

	prog.done(fmt.Sprintf("Exported %d frame(s)", len(formats)))
	printStats(len(data.Nodes), len(data.Edges), anyCached)
	printNextStep("Host it live", "vizhost serve")
	return nil
}

// warnInvalidFlow validates flow structure when the graph opts into flow
// roles. Structural problems never block a render; they are warnings.
func warnInvalidFlow(d graph.Data) {
	tagged := false
	for _, n := range d.Nodes {
		if n.Role == graph.RoleEntry || n.Role == graph.RoleTerminal {
			tagged = true
			break
		}
	}
	if !tagged {
		return
	}
	result := graph.ValidateFlow(d)
	for _, msg := range result.Errors {
		printWarning("flow: %s", msg)
	}
}

// instanceID derives the throwaway instance ID from the input file name.
func instanceID(input string) string {
	base := filepath.Base(input)
	if id := strings.TrimSuffix(base, filepath.Ext(base)); id != "" {
		return id
	}
	return "render"
}

// knownExtensions are output extensions stripped when deriving a base path.
var knownExtensions = map[string]bool{"png": true, "svg": true, "html": true}

// outputBase derives the base output path from the output and input file
// paths. If output is empty, it strips the extension from input. If
// output carries a format extension, that is stripped too, so
// "graph.png" with formats png,svg yields graph.png and graph.svg.
func outputBase(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if knownExtensions[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPath picks the file name for one exported format. A single
// format with an explicit --output writes exactly there; everything else
// derives base.format.
func artifactPath(base, output string, format render.Format, formatCount int) string {
	if formatCount == 1 && output != "" {
		return output
	}
	return base + "." + string(format)
}

// writeArtifact writes one exported frame, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
