// Package theme manages CSS custom properties for the visualization host.
//
// A theme is a mapping from custom-property name ("--viz-bg") to value.
// Apply merges new values in after validating every entry, Lookup reads a
// single property back, and CSS emits the ":root" block the server serves
// at /theme.css.
package theme

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrInvalidProperty is returned by [Theme.Apply] when a property name
	// is not of the "--name" custom-property form.
	ErrInvalidProperty = errors.New("invalid custom property name")

	// ErrInvalidValue is returned by [Theme.Apply] when a value contains
	// characters that would escape the emitted CSS declaration.
	ErrInvalidValue = errors.New("invalid custom property value")
)

var propRe = regexp.MustCompile(`^--[a-zA-Z][a-zA-Z0-9_-]*$`)

// Theme is a concurrent-safe set of CSS custom properties.
type Theme struct {
	mu   sync.RWMutex
	vars map[string]string
}

// New creates an empty theme.
func New() *Theme {
	return &Theme{vars: make(map[string]string)}
}

// Default returns the built-in theme preset.
func Default() *Theme {
	t := New()
	t.vars = map[string]string{
		"--viz-bg":            "#ffffff",
		"--viz-fg":            "#24292f",
		"--viz-accent":        "#0969da",
		"--viz-entry":         "#2da44e",
		"--viz-terminal":      "#cf222e",
		"--viz-edge":          "#57606a",
		"--viz-dim-opacity":   "0.25",
		"--viz-font":          "system-ui, sans-serif",
		"--viz-canvas-radius": "6px",
		"--viz-canvas-border": "1px solid #d0d7de",
	}
	return t
}

// Apply merges vars into the theme. Every entry is validated first; on any
// invalid name or value nothing is applied, so a failed apply leaves the
// theme exactly as it was.
func (t *Theme) Apply(vars map[string]string) error {
	for name, value := range vars {
		if !propRe.MatchString(name) {
			return fmt.Errorf("%w: %q", ErrInvalidProperty, name)
		}
		if strings.ContainsAny(value, ";{}") || strings.ContainsAny(value, "\n\r") {
			return fmt.Errorf("%w: %q", ErrInvalidValue, name)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for name, value := range vars {
		t.vars[name] = value
	}
	return nil
}

// Lookup returns the computed value of a named property.
func (t *Theme) Lookup(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vars[name]
	return v, ok
}

// Vars returns a copy of all properties.
func (t *Theme) Vars() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.vars)
}

// CSS emits the theme as a ":root" declaration block, properties sorted by
// name for deterministic output.
func (t *Theme) CSS() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range slices.Sorted(maps.Keys(t.vars)) {
		fmt.Fprintf(&b, "  %s: %s;\n", name, t.vars[name])
	}
	b.WriteString("}\n")
	return b.String()
}
