// Package normalization maps loosely written configuration values onto typed
// enums.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer looks up trimmed, lower-cased input in a fixed table.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
	keys     []string
}

// NewNormalizer builds a normalizer for values. Keys are normalized the same
// way as input; fallback is returned by Normalize for unknown input.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		key := normalize(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[normalize(raw)]; ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError is Normalize that reports unknown input instead of
// returning the fallback.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.values[normalize(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// ValidKeys returns the accepted keys in sorted order.
func (n *Normalizer[T]) ValidKeys() []string { return slices.Clone(n.keys) }

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
