package deferred

import (
	"errors"
	"testing"
)

func TestDeferred_ThenBeforeSettle(t *testing.T) {
	d := New[int]()
	var got int
	d.Then(func(v int) { got = v }, func(error) { t.Fatal("unexpected reject") })
	d.Resolve(42)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestDeferred_ThenAfterSettle(t *testing.T) {
	d := Resolved(7)
	var got int
	d.Then(func(v int) { got = v }, func(error) { t.Fatal("unexpected reject") })
	if got != 7 {
		t.Errorf("got %d, want 7 (already-settled Then must run immediately)", got)
	}
}

func TestDeferred_RejectIsMonotonic(t *testing.T) {
	d := New[int]()
	if !d.Reject(errors.New("first")) {
		t.Fatal("first reject should succeed")
	}
	if d.Resolve(1) {
		t.Error("resolve after reject should be a no-op")
	}
	if d.Reject(errors.New("second")) {
		t.Error("second reject should be a no-op")
	}
	_, err, ok := d.Peek()
	if !ok || err.Error() != "first" {
		t.Errorf("Peek() = %v, %v; want settled with \"first\"", err, ok)
	}
}

func TestDeferred_RejectPath(t *testing.T) {
	d := New[string]()
	wantErr := errors.New("boom")
	var gotErr error
	d.Then(func(string) { t.Fatal("unexpected resolve") }, func(e error) { gotErr = e })
	d.Reject(wantErr)
	if gotErr != wantErr {
		t.Errorf("got %v, want %v", gotErr, wantErr)
	}
}

func TestThenMap(t *testing.T) {
	d := New[int]()
	mapped := ThenMap(d, func(v int) (string, error) {
		if v < 0 {
			return "", errors.New("negative")
		}
		return "ok", nil
	})
	d.Resolve(5)
	v, err, ok := mapped.Peek()
	if !ok || err != nil || v != "ok" {
		t.Errorf("ThenMap result = %q, %v, %v", v, err, ok)
	}
}

func TestThenFlatten(t *testing.T) {
	outer := New[int]()
	flat := ThenFlatten(outer, func(v int) *Deferred[int] {
		return Resolved(v * 2)
	})
	outer.Resolve(21)
	v, err, ok := flat.Peek()
	if !ok || err != nil || v != 42 {
		t.Errorf("ThenFlatten result = %d, %v, %v; want 42", v, err, ok)
	}
}

func TestWhenAll_Empty(t *testing.T) {
	d := WhenAll[int]()
	v, err, ok := d.Peek()
	if !ok || err != nil || len(v) != 0 {
		t.Errorf("WhenAll() with no inputs = %v, %v, %v; want resolved empty slice", v, err, ok)
	}
}

func TestWhenAll_AllResolve(t *testing.T) {
	a, b, c := New[int](), New[int](), New[int]()
	all := WhenAll(a, b, c)
	a.Resolve(1)
	b.Resolve(2)
	c.Resolve(3)
	v, err, ok := all.Peek()
	if !ok || err != nil {
		t.Fatalf("WhenAll did not settle: %v %v", err, ok)
	}
	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("WhenAll() = %v, want [1 2 3]", v)
	}
}

func TestWhenAll_FirstRejectionWins(t *testing.T) {
	a, b := New[int](), New[int]()
	all := WhenAll(a, b)
	wantErr := errors.New("a failed")
	a.Reject(wantErr)
	b.Resolve(2)
	_, err, ok := all.Peek()
	if !ok || err != wantErr {
		t.Errorf("WhenAll() error = %v, want %v", err, wantErr)
	}
}

func TestWhenAny_Empty(t *testing.T) {
	d := WhenAny[int]()
	_, err, ok := d.Peek()
	if !ok || !errors.Is(err, ErrNoInputs) {
		t.Errorf("WhenAny() with no inputs = %v, %v; want ErrNoInputs", err, ok)
	}
}

func TestWhenAny_FirstResolveWins(t *testing.T) {
	a, b := New[int](), New[int]()
	any := WhenAny(a, b)
	b.Resolve(99)
	a.Resolve(1)
	v, err, ok := any.Peek()
	if !ok || err != nil {
		t.Fatalf("WhenAny did not settle: %v %v", err, ok)
	}
	if v.Index != 1 || v.Value != 99 {
		t.Errorf("WhenAny() = %+v, want {Index:1 Value:99}", v)
	}
}

func TestWhenAny_RejectsOnlyWhenAllReject(t *testing.T) {
	a, b := New[int](), New[int]()
	any := WhenAny(a, b)
	a.Reject(errors.New("a"))
	if any.Settled() {
		t.Fatal("WhenAny settled after only one rejection")
	}
	wantErr := errors.New("b")
	b.Reject(wantErr)
	_, err, ok := any.Peek()
	if !ok || err != wantErr {
		t.Errorf("WhenAny() error = %v, want %v", err, wantErr)
	}
}

type fakeDispatcher struct {
	posted []func()
}

func (f *fakeDispatcher) Post(fn func()) bool {
	f.posted = append(f.posted, fn)
	return true
}
func (f *fakeDispatcher) WorkerIndex() int { return 0 }

func TestDeferred_ThenOnDeferredPost(t *testing.T) {
	disp := &fakeDispatcher{}
	d := New[int]()
	ran := false
	d.ThenOn(disp, func(int) { ran = true }, nil)
	d.Resolve(1)
	if ran {
		t.Fatal("ThenOn continuation ran inline; should have been posted to dispatcher")
	}
	if len(disp.posted) != 1 {
		t.Fatalf("dispatcher got %d posts, want 1", len(disp.posted))
	}
	disp.posted[0]()
	if !ran {
		t.Error("continuation did not run after dispatcher executed the posted fn")
	}
}
