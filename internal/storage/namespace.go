package storage

import "context"

type namespaced struct {
	next   Storage
	prefix string
}

// Namespace scopes every key under prefix, so each visitor session gets its
// own partition of a shared backend.
func Namespace(next Storage, prefix string) Storage {
	return namespaced{next: next, prefix: prefix}
}

func (n namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.next.Get(ctx, n.prefix+key)
}

func (n namespaced) Set(ctx context.Context, key, value string) error {
	return n.next.Set(ctx, n.prefix+key, value)
}

func (n namespaced) Delete(ctx context.Context, key string) error {
	return n.next.Delete(ctx, n.prefix+key)
}
