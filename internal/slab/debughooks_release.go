//go:build !slabdebug

package slab

// defaultDebugHooks is the hooks set a Context uses when none is
// supplied explicitly and the slabdebug build tag is absent: every hook
// is a no-op, so there is zero overhead on the hot allocate/free path.
func defaultDebugHooks() DebugHooks {
	return noopDebugHooks()
}
