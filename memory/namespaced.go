package memory

import (
	"context"
	"strings"

	"github.com/skreaver-dev/skreaver/identifiers"
)

// Namespaced wraps any ReaderWriter, prepending "{prefix}:" to every key on
// ingress and stripping it on egress. It preserves every invariant of the
// wrapped backend because it never observes keys outside its own prefix.
type Namespaced struct {
	prefix string
	inner  ReaderWriter
}

// NewNamespaced validates prefix as a key-prefix fragment (identical
// grammar to MemoryKey, since "{prefix}:{key}" must itself be a valid
// MemoryKey) and wraps inner.
func NewNamespaced(prefix string, inner ReaderWriter) (*Namespaced, error) {
	if _, err := identifiers.ParseMemoryKey(prefix); err != nil {
		return nil, err
	}
	return &Namespaced{prefix: prefix, inner: inner}, nil
}

func (n *Namespaced) namespacedKey(key identifiers.MemoryKey) identifiers.MemoryKey {
	// The prefixed form is guaranteed to satisfy the MemoryKey grammar
	// because both prefix and key were already validated and ":" is a
	// legal MemoryKey character.
	k, _ := identifiers.ParseMemoryKey(n.prefix + ":" + key.String())
	return k
}

func (n *Namespaced) ownPrefix(raw string) (string, bool) {
	cut := n.prefix + ":"
	if !strings.HasPrefix(raw, cut) {
		return "", false
	}
	return strings.TrimPrefix(raw, cut), true
}

func (n *Namespaced) Load(ctx context.Context, key identifiers.MemoryKey) (string, bool, error) {
	return n.inner.Load(ctx, n.namespacedKey(key))
}

func (n *Namespaced) LoadMany(ctx context.Context, keys []identifiers.MemoryKey) ([]LoadResult, error) {
	return alignLoadMany(ctx, n, keys)
}

func (n *Namespaced) Store(ctx context.Context, update Update) error {
	return n.inner.Store(ctx, Update{Key: n.namespacedKey(update.Key), Value: update.Value})
}

func (n *Namespaced) StoreMany(ctx context.Context, updates []Update) error {
	namespaced := make([]Update, len(updates))
	for i, u := range updates {
		namespaced[i] = Update{Key: n.namespacedKey(u.Key), Value: u.Value}
	}
	return n.inner.StoreMany(ctx, namespaced)
}
