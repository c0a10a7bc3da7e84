package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Hosts that serve several workspaces give each one its own namespace so
// cached frames never leak across them.
//
// Example usage:
//
//	// Workspace-specific keys
//	wsKeyer := NewScopedKeyer(NewDefaultKeyer(), "ws:abc123:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// FrameKey generates a prefixed key for frame caching.
func (k *ScopedKeyer) FrameKey(stateHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(stateHash, opts)
}
