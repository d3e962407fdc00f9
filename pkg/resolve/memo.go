package resolve

import (
	"context"
	"errors"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
)

type memoKey struct {
	tag   actiontag.Tag
	param string
}

type memoEntry struct {
	result Result
	err    error
}

// Memo caches resolutions for the duration of one page render, keyed by tag
// and parameter. Successful results and unresolvable lookups are cached;
// store failures are not. A Memo is not safe for concurrent use and must be
// discarded when the render ends.
type Memo struct {
	resolver *Resolver
	entries  map[memoKey]memoEntry
	misses   int
}

// NewMemo starts a render-scoped cache over r.
func (r *Resolver) NewMemo() *Memo {
	return &Memo{resolver: r, entries: make(map[memoKey]memoEntry)}
}

// Resolve returns the cached result for (tag, param) or resolves it.
func (m *Memo) Resolve(ctx context.Context, rc Context, tag actiontag.Tag, param string) (Result, error) {
	key := memoKey{tag: tag, param: param}
	if entry, ok := m.entries[key]; ok {
		return entry.result, entry.err
	}
	m.misses++
	result, err := m.resolver.ResolveTag(ctx, rc, tag, param)
	if err == nil || errors.Is(err, ErrUnresolvable) {
		m.entries[key] = memoEntry{result: result, err: err}
	}
	return result, err
}

// Resolutions reports how many lookups reached the resolver.
func (m *Memo) Resolutions() int { return m.misses }
