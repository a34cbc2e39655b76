package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	id, ch := bus.Subscribe(TypeCredentialMinted)
	defer bus.Unsubscribe(TypeCredentialMinted, id)

	bus.Publish(TypeCredentialMinted, uint64(7))

	select {
	case evt := <-ch:
		if evt.Type != TypeCredentialMinted {
			t.Errorf("Type = %q, want %q", evt.Type, TypeCredentialMinted)
		}
		if evt.Data.(uint64) != 7 {
			t.Errorf("Data = %v, want 7", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	id, ch := bus.Subscribe(TypeGuildAdded)
	defer bus.Unsubscribe(TypeGuildAdded, id)

	bus.Publish(TypeCredentialMinted, uint64(1))

	select {
	case evt := <-ch:
		t.Fatalf("received event of wrong type: %v", evt.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	id, ch := bus.Subscribe(TypeCredentialBurned)
	bus.Unsubscribe(TypeCredentialBurned, id)

	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish(TypeCredentialBurned, uint64(1))
}

func TestBus_FullQueueDoesNotBlock(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	id, _ := bus.Subscribe(TypeCredentialMinted)
	defer bus.Unsubscribe(TypeCredentialMinted, id)

	done := make(chan struct{})
	go func() {
		for i := 0; i < DefaultQueueSize+10; i++ {
			bus.Publish(TypeCredentialMinted, uint64(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber queue")
	}
}
