package cache

// Keyer produces cache keys for each cached entry type.
type Keyer interface {
	// LayoutKey keys a layout by the hash of its source document and the
	// options that influence the engine.
	LayoutKey(docHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered output by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every option that changes the computed coordinates.
type LayoutKeyOpts struct {
	Tier     string `msgpack:"tier"`
	Round    int    `msgpack:"round"`
	Provider string `msgpack:"provider"`
	// Overrides is a hash of tier and size overrides from the config file.
	Overrides string `msgpack:"overrides"`
}

// ArtifactKeyOpts holds every option that changes a rendered output.
type ArtifactKeyOpts struct {
	Format string  `msgpack:"format"`
	Scale  float64 `msgpack:"scale"`
	Title  string  `msgpack:"title"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
