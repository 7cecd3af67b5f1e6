//go:build !slabdebug

package slab

// Check is a no-op outside the slabdebug build: the integrity walk has
// real cost (spec.md §4.8 "Performance"), so production builds don't
// pay for it unless asked.
func (c *Context) Check() {}
