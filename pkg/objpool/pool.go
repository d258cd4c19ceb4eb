// Package objpool wraps sync.Pool with a typed API for values that know how
// to reset themselves before reuse.
package objpool

import "sync"

// Resettable is implemented by pooled values such as *bytes.Buffer.
type Resettable interface {
	Reset()
}

// Pool is a typed sync.Pool.
type Pool[T Resettable] struct {
	internal sync.Pool
}

func New[T Resettable](newFunc func() T) *Pool[T] {
	return &Pool[T]{internal: sync.Pool{
		New: func() any { return newFunc() },
	}}
}

func (p *Pool[T]) Get() T {
	return p.internal.Get().(T)
}

// Put resets obj and returns it to the pool. obj must not be used afterwards.
func (p *Pool[T]) Put(obj T) {
	obj.Reset()
	p.internal.Put(obj)
}

// Do lends a value to fn and takes it back once fn returns. fn must not
// retain the value or anything aliasing its memory.
func (p *Pool[T]) Do(fn func(T)) {
	obj := p.Get()
	defer p.Put(obj)
	fn(obj)
}
