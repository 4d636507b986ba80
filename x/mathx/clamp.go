// Package mathx holds the generic range helpers used by config
// validation, the console and the simulated sensors.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to the closed range between lo and hi, in either order.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	lo, hi = order(lo, hi)
	return Min(Max(v, lo), hi)
}

// Between reports whether v lies in the closed range between lo and hi.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	lo, hi = order(lo, hi)
	return lo <= v && v <= hi
}

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

func order[T constraints.Ordered](a, b T) (T, T) {
	if b < a {
		return b, a
	}
	return a, b
}
