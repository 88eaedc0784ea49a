package service

import "context"

type storeKey struct{}

// WithStore binds s to ctx. Everything that derives from the returned context
// reaches the same cart through FromContext.
func WithStore(ctx context.Context, s *CartStore) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the bound store or ErrNotInitialized.
func FromContext(ctx context.Context) (*CartStore, error) {
	s, ok := ctx.Value(storeKey{}).(*CartStore)
	if !ok || s == nil {
		return nil, ErrNotInitialized
	}
	return s, nil
}
