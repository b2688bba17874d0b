// File: deferred/combinators.go
// Package deferred — type-changing Then (monadic bind), WhenAll, WhenAny.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Go methods cannot introduce a fresh type parameter beyond the receiver's,
// so the type-changing form of `then` — where onOk's return type differs
// from T, and where an onOk returning a Deferred[U] flattens the chain —
// is expressed as package-level generic functions rather than methods.

package deferred

import "sync"

// ThenMap chains onOK, producing a Deferred[U]. If onOK returns an error,
// the resulting Deferred is rejected instead of fulfilled.
func ThenMap[T, U any](d *Deferred[T], onOK func(T) (U, error)) *Deferred[U] {
	out := New[U]()
	d.Then(func(v T) {
		u, err := onOK(v)
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(u)
	}, func(err error) {
		out.Reject(err)
	})
	return out
}

// ThenFlatten chains onOK where onOK itself returns a Deferred[U]; the
// outer Deferred resolves/rejects when the inner one settles (monadic
// bind with flattening, per the design).
func ThenFlatten[T, U any](d *Deferred[T], onOK func(T) *Deferred[U]) *Deferred[U] {
	out := New[U]()
	d.Then(func(v T) {
		inner := onOK(v)
		inner.Then(func(u U) {
			out.Resolve(u)
		}, func(err error) {
			out.Reject(err)
		})
	}, func(err error) {
		out.Reject(err)
	})
	return out
}

// WhenAll resolves to the slice of every input's value once all resolve,
// or rejects with the first rejection observed. WhenAll of an empty slice
// resolves immediately to an empty slice.
func WhenAll[T any](ds ...*Deferred[T]) *Deferred[[]T] {
	out := New[[]T]()
	if len(ds) == 0 {
		out.Resolve(nil)
		return out
	}

	results := make([]T, len(ds))
	var mu sync.Mutex
	remaining := len(ds)
	done := false

	for i, d := range ds {
		i := i
		d.Then(func(v T) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				done = true
				out.Resolve(results)
			}
		}, func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			done = true
			out.Reject(err)
		})
	}
	return out
}

// Any wraps the winning value of a WhenAny race along with the index of
// the input Deferred that produced it.
type Any[T any] struct {
	Index int
	Value T
}

// WhenAny resolves to the first input to settle successfully, wrapped in
// an Any holder; it rejects only if every input rejects, with the last
// rejection observed.
func WhenAny[T any](ds ...*Deferred[T]) *Deferred[Any[T]] {
	out := New[Any[T]]()
	if len(ds) == 0 {
		out.Reject(ErrNoInputs)
		return out
	}

	var mu sync.Mutex
	done := false
	remainingErrs := len(ds)
	var lastErr error

	for i, d := range ds {
		i := i
		d.Then(func(v T) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			done = true
			out.Resolve(Any[T]{Index: i, Value: v})
		}, func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			lastErr = err
			remainingErrs--
			if remainingErrs == 0 {
				done = true
				out.Reject(lastErr)
			}
		})
	}
	return out
}
