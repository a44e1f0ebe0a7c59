package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/gobwas/glob"
)

// Collection is the bundle plan. It is mutable until Freeze and read-only
// afterwards.
type Collection struct {
	env    *Env
	filter glob.Glob

	bundles []*domain.Bundle
	byID    map[string]int
	frozen  bool
}

// NewCollection creates an empty plan. An empty filter accepts every bundle;
// otherwise bundle ids are matched against the comma separated glob list.
func NewCollection(env *Env, filter string) (*Collection, error) {
	c := &Collection{
		env:  env,
		byID: make(map[string]int),
	}

	if filter != "" && filter != "*" {
		g, err := CompileFilter(filter)
		if err != nil {
			return nil, err
		}
		c.filter = g
	}

	return c, nil
}

// CompileFilter compiles a bundle filter such as "kibana,status_*".
func CompileFilter(filter string) (glob.Glob, error) {
	patterns := strings.Split(filter, ",")
	for i, p := range patterns {
		patterns[i] = strings.TrimSpace(p)
	}

	pattern := patterns[0]
	if len(patterns) > 1 {
		pattern = "{" + strings.Join(patterns, ",") + "}"
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle filter %q: %w", filter, err)
	}
	return g, nil
}

// Factory returns a domain.BundleFactory stamping bundles with the env's
// current fingerprint.
func Factory(env *Env) domain.BundleFactory {
	return func(spec domain.BundleSpec) *domain.Bundle {
		return &domain.Bundle{
			ID:       spec.ID,
			Modules:  slices.Clone(spec.Modules),
			Template: spec.Template,
			Source:   domain.BundleSourceProvider,
			CacheKey: bundleCacheKey(env.CacheKey(), spec.ID, spec.Modules),
		}
	}
}

// AddApp adds the bundle for an application. Applications excluded by the
// filter are skipped and reported as not added.
func (c *Collection) AddApp(app domain.Application) (bool, error) {
	modules := []string{}
	if app.Main != "" {
		modules = append(modules, app.Main)
	}

	b := &domain.Bundle{
		ID:       app.ID,
		Modules:  modules,
		Template: app.TemplateName,
		Source:   domain.BundleSourceApp,
		CacheKey: bundleCacheKey(c.env.CacheKey(), app.ID, modules),
	}
	return c.Add(b)
}

// Add appends a bundle unless the filter excludes it. Bundle ids are unique
// within the plan. The cache key is always derived from the env, whatever
// the bundle carried.
func (c *Collection) Add(b *domain.Bundle) (bool, error) {
	if c.frozen {
		return false, domain.ErrFrozen
	}
	if b == nil || b.ID == "" {
		return false, fmt.Errorf("%w: bundle id is required", domain.ErrInvalidContribution)
	}
	if c.filter != nil && !c.filter.Match(b.ID) {
		return false, nil
	}
	if _, ok := c.byID[b.ID]; ok {
		return false, fmt.Errorf("%w: duplicate bundle %q", domain.ErrInvalidContribution, b.ID)
	}
	b.CacheKey = bundleCacheKey(c.env.CacheKey(), b.ID, b.Modules)
	if b.Source == "" {
		b.Source = domain.BundleSourceProvider
	}

	c.byID[b.ID] = len(c.bundles)
	c.bundles = append(c.bundles, b)
	return true, nil
}

func (c *Collection) Freeze() { c.frozen = true }

func (c *Collection) Frozen() bool { return c.frozen }

// All returns copies of the bundles in assembly order.
func (c *Collection) All() []domain.Bundle {
	out := make([]domain.Bundle, len(c.bundles))
	for i, b := range c.bundles {
		out[i] = *b
		out[i].Modules = slices.Clone(b.Modules)
	}
	return out
}

func (c *Collection) Get(id string) (domain.Bundle, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Bundle{}, false
	}
	return *c.bundles[i], true
}

func (c *Collection) Len() int { return len(c.bundles) }

// CacheKey is the fingerprint of the env the plan was assembled against.
func (c *Collection) CacheKey() string { return c.env.CacheKey() }

func bundleCacheKey(envKey, id string, modules []string) string {
	h := sha256.New()
	h.Write([]byte(envKey))
	h.Write([]byte{0})
	h.Write([]byte(id))
	for _, m := range modules {
		h.Write([]byte{0})
		h.Write([]byte(m))
	}
	return hex.EncodeToString(h.Sum(nil))
}
