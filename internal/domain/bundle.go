package domain

// BundleSource records where a bundle definition came from.
type BundleSource string

const (
	BundleSourceApp      BundleSource = "app"
	BundleSourceProvider BundleSource = "provider"
)

// Bundle describes what should be packaged for an application or a
// provider-contributed asset set. CacheKey is the build context fingerprint
// the bundle was assembled against.
type Bundle struct {
	ID       string       `json:"id"`
	Modules  []string     `json:"modules"`
	Template string       `json:"template,omitempty"`
	Source   BundleSource `json:"source"`
	CacheKey string       `json:"cache_key"`
}

// BundleSpec is the input a bundle provider hands to a BundleFactory.
type BundleSpec struct {
	ID       string
	Modules  []string
	Template string
}

// BundleFactory builds a bundle stamped with the current build context.
type BundleFactory func(spec BundleSpec) *Bundle

// BuildEnv is the read side of the build context handed to bundle providers.
type BuildEnv interface {
	Entry(name string) (any, bool)
	CacheKey() string
}
