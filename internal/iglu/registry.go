package iglu

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// memoCacheSize matches the original's process-lifetime
// lru_cache(maxsize=100) wrapping schema resolution: a schema, once
// successfully resolved, never needs to be re-resolved for the life of
// the process. Misses are not memoized; a remote registry's own short
// negative cache decides when a missing schema is asked for again.
const memoCacheSize = 100

// Resolver is satisfied by HardcodedRegistry and RemoteRegistry.
type Resolver interface {
	Lookup(ref string) (Entry, bool)
}

// Registry is the single entry point enrichments use to resolve a schema
// reference into a validator. It checks the hardcoded registry first, then
// each configured remote registry in order, and memoizes each successful
// resolution for the remainder of the process.
type Registry struct {
	hardcoded *HardcodedRegistry
	remotes   []Resolver

	mu    sync.Mutex
	memo  *lru.Cache
}

// NewRegistry builds a Registry backed by the built-in schemas plus the
// given remote registries, tried in order.
func NewRegistry(hardcoded *HardcodedRegistry, remotes ...Resolver) (*Registry, error) {
	memo, err := lru.New(memoCacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{hardcoded: hardcoded, remotes: remotes, memo: memo}, nil
}

type memoResult struct {
	entry Entry
	found bool
}

// Resolve returns the compiled Entry for ref, or an error if no registry
// (hardcoded or remote) carries it.
func (r *Registry) Resolve(ref string) (Entry, error) {
	r.mu.Lock()
	if v, ok := r.memo.Get(ref); ok {
		r.mu.Unlock()
		res := v.(memoResult)
		if !res.found {
			return Entry{}, fmt.Errorf("iglu: schema not found: %s", ref)
		}
		return res.entry, nil
	}
	r.mu.Unlock()

	entry, found := r.resolveUncached(ref)

	if found {
		r.mu.Lock()
		r.memo.Add(ref, memoResult{entry: entry, found: found})
		r.mu.Unlock()
	}

	if !found {
		return Entry{}, fmt.Errorf("iglu: schema not found: %s", ref)
	}
	return entry, nil
}

func (r *Registry) resolveUncached(ref string) (Entry, bool) {
	if r.hardcoded != nil {
		if entry, ok := r.hardcoded.Lookup(ref); ok {
			return entry, true
		}
	}
	for _, remote := range r.remotes {
		if entry, ok := remote.Lookup(ref); ok {
			return entry, true
		}
	}
	return Entry{}, false
}
