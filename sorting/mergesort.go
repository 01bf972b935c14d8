// Package sorting provides a stable, comparator-driven merge sort for
// arbitrary record slices.
package sorting

import (
	"github.com/go-faster/errors"
)

// ErrInvalidSortSpec is returned when Sort is called with neither a
// comparator nor a key.
var ErrInvalidSortSpec = errors.New("sorting: either a comparator or a key is required")

// Direction is the ordering applied to a key comparator.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Comparator returns a negative number when a orders before b, a positive
// number when it orders after, and zero when they are equal.
type Comparator[T any] func(a, b T) int

// Options configures a Sort call. Comparator takes precedence over Key.
type Options[T any] struct {
	Comparator Comparator[T]
	Key        string
	Direction  Direction
}

// Sort returns a new slice holding items in the order described by opts.
// The input is never modified. Elements that compare equal keep their
// relative input order.
func Sort[T any](items []T, opts Options[T]) ([]T, error) {
	cmp, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(items))
	copy(out, items)
	if len(out) <= 1 {
		return out, nil
	}

	buf := make([]T, len(out))
	mergeSort(out, buf, cmp)
	return out, nil
}

func resolve[T any](opts Options[T]) (Comparator[T], error) {
	switch {
	case opts.Comparator != nil:
		return opts.Comparator, nil
	case opts.Key != "":
		return ByKey[T](opts.Key, opts.Direction), nil
	default:
		return nil, ErrInvalidSortSpec
	}
}

// mergeSort sorts items in place using buf (same length) as scratch space.
func mergeSort[T any](items, buf []T, cmp Comparator[T]) {
	if len(items) <= 1 {
		return
	}

	mid := len(items) / 2
	mergeSort(items[:mid], buf[:mid], cmp)
	mergeSort(items[mid:], buf[mid:], cmp)

	merge(items[:mid], items[mid:], buf, cmp)
	copy(items, buf)
}

// merge writes left and right into dst. Taking from the left run on ties
// (<= 0) is what keeps the sort stable.
func merge[T any](left, right, dst []T, cmp Comparator[T]) {
	i, j, k := 0, 0, 0

	for i < len(left) && j < len(right) {
		if cmp(left[i], right[j]) <= 0 {
			dst[k] = left[i]
			i++
		} else {
			dst[k] = right[j]
			j++
		}
		k++
	}

	k += copy(dst[k:], left[i:])
	copy(dst[k:], right[j:])
}
