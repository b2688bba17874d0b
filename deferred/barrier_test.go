package deferred

import (
	"testing"
	"time"
)

func TestBarrier_WaitResolves(t *testing.T) {
	d := New[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		d.Resolve(5)
	}()
	v, err := NewBarrier(d).Wait()
	if err != nil || v != 5 {
		t.Errorf("Wait() = %d, %v; want 5, nil", v, err)
	}
}

func TestBarrier_WaitForTimesOut(t *testing.T) {
	d := New[int]()
	_, err, ok := NewBarrier(d).WaitFor(10 * time.Millisecond)
	if ok {
		t.Error("WaitFor should have timed out on a never-settled Deferred")
	}
	if err != nil {
		t.Errorf("WaitFor timeout err = %v, want nil", err)
	}
}

func TestBarrier_RefusesOnWorkerThread(t *testing.T) {
	SetWorkerThreadDetector(func() bool { return true })
	defer SetWorkerThreadDetector(func() bool { return false })

	d := Resolved(1)
	_, err := NewBarrier(d).Wait()
	if err != ErrBarrierOnWorker {
		t.Errorf("Wait() on worker thread = %v, want ErrBarrierOnWorker", err)
	}
}
