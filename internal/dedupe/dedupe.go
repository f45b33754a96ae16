// Package dedupe collapses concurrent requests for the same work into a
// single execution.
package dedupe

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Group runs one function per key at a time. Callers arriving while a call
// is in flight wait for it and share its result.
type Group struct {
	g singleflight.Group
}

func New() *Group { return &Group{} }

// Do runs fn for key unless a call is already in flight. leader is true only
// for the caller whose fn ran. fn gets a context detached from the leader's
// cancellation, since its result is shared with every waiter.
func (d *Group) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (v any, leader bool, err error) {
	v, err, _ = d.g.Do(key, func() (any, error) {
		leader = true
		return fn(context.WithoutCancel(ctx))
	})
	return v, leader, err
}
