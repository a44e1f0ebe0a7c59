// Package bundle holds the build context and the bundle plan.
//
// Env collects the build facts (environment name, base path, source maps,
// version, build number) whose combination is the cache-invalidation
// fingerprint of every bundle. Collection is the ordered, deduplicated set
// of bundle definitions assembled at startup.
package bundle
