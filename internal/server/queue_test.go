package server

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueueDeliversInOrder(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 100; i++ {
		if !q.Put(i) {
			t.Fatalf("put %d rejected", i)
		}
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Get(context.Background())
		if !ok {
			t.Fatalf("get %d: queue reported done", i)
		}
		if v != i {
			t.Fatalf("got %d, want %d", v, i)
		}
	}
}

func TestQueueDrainsAfterClose(t *testing.T) {
	q := newQueue[string]()
	q.Put("a")
	q.Put("b")
	q.Close()

	if q.Put("c") {
		t.Fatal("put accepted after close")
	}
	if v, ok := q.Get(context.Background()); !ok || v != "a" {
		t.Fatalf("got %q ok=%v, want a", v, ok)
	}
	if v, ok := q.Get(context.Background()); !ok || v != "b" {
		t.Fatalf("got %q ok=%v, want b", v, ok)
	}
	if _, ok := q.Get(context.Background()); ok {
		t.Fatal("expected done after drain")
	}
}

func TestQueueCloseIsIdempotent(t *testing.T) {
	q := newQueue[int]()
	q.Close()
	q.Close()
	if _, ok := q.Get(context.Background()); ok {
		t.Fatal("expected done")
	}
}

func TestQueueGetHonorsContext(t *testing.T) {
	q := newQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Get(ctx); ok {
			t.Error("expected cancelled get to report done")
		}
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("get did not unblock on cancel")
	}
	if ctx.Err() == nil {
		t.Fatal("expected context error")
	}
}

func TestQueueWakesBlockedConsumer(t *testing.T) {
	q := newQueue[int]()
	got := make(chan int, 1)
	go func() {
		v, ok := q.Get(context.Background())
		if ok {
			got <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Put(42)
	select {
	case v := <-got:
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never woke")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := newQueue[int]()
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(1)
			}
		}()
	}
	wg.Wait()

	total := 0
	for i := 0; i < producers*perProducer; i++ {
		v, ok := q.Get(context.Background())
		if !ok {
			t.Fatalf("queue done after %d items", i)
		}
		total += v
	}
	if total != producers*perProducer {
		t.Fatalf("got %d items, want %d", total, producers*perProducer)
	}
}
