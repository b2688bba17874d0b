package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMailbox_MPSC(t *testing.T) {
	notify, err := NewNotifyFd()
	if err != nil {
		t.Fatalf("NewNotifyFd: %v", err)
	}
	defer notify.Close()

	mb := NewMailbox(1024, notify)
	producers := 8
	itemsPerProducer := 5000
	total := int64(producers * itemsPerProducer)

	var sent int64
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := int64(pid*itemsPerProducer + i + 1)
				for !mb.Post(func() { atomic.AddInt64(&sent, val) }) {
					runtime.Gosched()
				}
			}
		}(p)
	}

	// Drain while the producers run: the ring holds 1024 closures, far
	// fewer than the 40000 posted, so Post fails until the consumer drains.
	var received int64
	deadline := time.Now().Add(5 * time.Second)
	for received < total && time.Now().Before(deadline) {
		for _, fn := range mb.Drain() {
			fn()
			received++
		}
		if received < total {
			runtime.Gosched()
		}
	}
	if received != total {
		t.Fatalf("drained %d closures, want %d", received, total)
	}
	wg.Wait()
	if sent == 0 {
		t.Error("posted closures never ran")
	}
}

func TestMailbox_NotifiesOnPost(t *testing.T) {
	notify, err := NewNotifyFd()
	if err != nil {
		t.Fatalf("NewNotifyFd: %v", err)
	}
	defer notify.Close()

	mb := NewMailbox(16, notify)
	if !mb.Post(func() {}) {
		t.Fatal("Post failed on empty mailbox")
	}
	n, err := notify.Drain()
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n == 0 {
		t.Error("NotifyFd was not incremented by Post")
	}
}
