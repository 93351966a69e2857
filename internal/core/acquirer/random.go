package acquirer

import (
	"errors"
	"math/rand/v2"
)

// ErrInvalidIndexRange is returned when an index is requested from an empty range
var ErrInvalidIndexRange = errors.New("length must be greater than 0")

// IndexGenerator picks an index in [0, n)
type IndexGenerator interface {
	Index(n int) (int, error)
}

// IndexFunc adapts a function to IndexGenerator
type IndexFunc func(n int) (int, error)

func (f IndexFunc) Index(n int) (int, error) {
	return f(n)
}

// RandomIndex draws uniformly from math/rand/v2
var RandomIndex IndexGenerator = IndexFunc(func(n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidIndexRange
	}
	if n == 1 {
		return 0, nil
	}
	return rand.IntN(n), nil
})
