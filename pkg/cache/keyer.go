package cache

// Keyer generates cache keys for the things the host caches.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// FrameKey generates a key for an exported frame. stateHash fingerprints
	// the instance state the frame was rendered from.
	FrameKey(stateHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts are the render parameters that change a frame's bytes
// without changing the instance state.
type FrameKeyOpts struct {
	Format string  `json:"format"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// FrameKey generates a key for an exported frame.
func (k *DefaultKeyer) FrameKey(stateHash string, opts FrameKeyOpts) string {
	return hashKey("frame", stateHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
