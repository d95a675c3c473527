package gring

import (
	"iter"
)

// Fixed size ring, overwrites the oldest element when full
type Ring[T any] struct {
	l   int
	s   []T
	pos int
}

func NewRing[T any](l int) *Ring[T] {
	return &Ring[T]{
		l:   0,
		s:   make([]T, max(l, 1)),
		pos: 0,
	}
}

func (r *Ring[T]) Size() int {
	return r.l
}

func (r *Ring[T]) Push(e T) {
	r.s[r.pos] = e
	r.pos++
	if r.pos >= len(r.s) {
		r.pos = 0
	}
	if r.l < len(r.s) {
		r.l++
	}
}

// Newest first
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range r.l {
			real_pos := r.pos - 1 - i
			if real_pos < 0 {
				real_pos = len(r.s) + real_pos
			}
			if !yield(r.s[real_pos]) {
				return
			}
		}
	}
}

func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.l == 0 {
		return zero, false
	}
	for e := range r.All() {
		return e, true
	}
	return zero, false
}
