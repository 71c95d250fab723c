package blockwatch

import (
	"testing"
	"time"
)

func recvBlock(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for block")
		return 0
	}
}

func TestSubject_SeedsLateSubscriber(t *testing.T) {
	s := NewSubject()
	s.Set(10)

	sub := s.Subscribe()
	defer sub.Unsubscribe()

	if got := recvBlock(t, sub.C); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
}

func TestSubject_NotifiesOnChange(t *testing.T) {
	s := NewSubject()
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	s.Set(5)
	if got := recvBlock(t, sub.C); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}

	s.Set(6)
	if got := recvBlock(t, sub.C); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestSubject_UnchangedValueDoesNotFire(t *testing.T) {
	s := NewSubject()
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	s.Set(5)
	recvBlock(t, sub.C)

	s.Set(5)
	select {
	case b := <-sub.C:
		t.Errorf("unexpected notification for unchanged block: %d", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubject_LaggingSubscriberSeesLatest(t *testing.T) {
	s := NewSubject()
	sub := s.Subscribe()
	defer sub.Unsubscribe()

	// Never drained in between: only the most recent value remains.
	s.Set(1)
	s.Set(2)
	s.Set(3)

	if got := recvBlock(t, sub.C); got != 3 {
		t.Errorf("expected latest block 3, got %d", got)
	}
}

func TestSubject_UnsubscribeStopsDelivery(t *testing.T) {
	s := NewSubject()
	sub := s.Subscribe()

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	s.Set(9)

	select {
	case b, ok := <-sub.C:
		if ok {
			t.Errorf("received %d after unsubscribe", b)
		}
		// closed channel is the expected state
	case <-time.After(50 * time.Millisecond):
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestSubject_Current(t *testing.T) {
	s := NewSubject()
	if _, ok := s.Current(); ok {
		t.Error("expected no current block before first Set")
	}

	s.Set(42)
	cur, ok := s.Current()
	if !ok || cur != 42 {
		t.Errorf("Current() = %d,%v, want 42,true", cur, ok)
	}
}

func TestSubject_IndependentSubscribers(t *testing.T) {
	s := NewSubject()
	a := s.Subscribe()
	b := s.Subscribe()
	defer b.Unsubscribe()

	a.Unsubscribe()
	s.Set(7)

	if got := recvBlock(t, b.C); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}
