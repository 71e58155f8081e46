package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGoErrorCancelsContext(t *testing.T) {
	sup := New(context.Background(), WithCancelOnError(true))
	boom := errors.New("boom")
	sup.Go("failing", func(ctx context.Context) error { return boom })

	select {
	case <-sup.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after goroutine error")
	}
	if !errors.Is(sup.Err(), boom) {
		t.Fatalf("Err = %v, want boom", sup.Err())
	}
}

func TestPanicIsRecovered(t *testing.T) {
	sup := New(context.Background(), WithCancelOnError(true))
	sup.Go("panicking", func(ctx context.Context) error { panic("oops") })

	select {
	case <-sup.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after panic")
	}
	if sup.Err() == nil {
		t.Fatal("panic should surface as an error")
	}
}

func TestWaitReturnsWhenIdle(t *testing.T) {
	sup := New(context.Background())
	done := make(chan struct{})
	sup.Go0("worker", func(ctx context.Context) {
		<-done
	})
	if sup.Active() != 1 {
		t.Fatalf("Active = %d, want 1", sup.Active())
	}
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sup.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestContextCancelIgnoredAsError(t *testing.T) {
	sup := New(context.Background(), WithCancelOnError(true))
	sup.Go("canceled", func(ctx context.Context) error { return context.Canceled })
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = sup.Wait(ctx)
	if sup.Err() != nil {
		t.Fatalf("context.Canceled should not count as fatal, got %v", sup.Err())
	}
}
