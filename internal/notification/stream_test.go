package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStream_DeliversOnlyToMatchingRecipient(t *testing.T) {
	stream := NewStream()
	alice := uuid.New()
	bob := uuid.New()

	aliceSub := stream.Subscribe(alice)
	defer aliceSub.Cancel()
	bobSub := stream.Subscribe(bob)
	defer bobSub.Cancel()

	stream.Push(Notification{ID: uuid.New(), RecipientID: alice, Message: "hello"})

	select {
	case n := <-aliceSub.C:
		if n.Message != "hello" {
			t.Fatalf("expected message %q, got %q", "hello", n.Message)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected alice to receive the notification")
	}

	select {
	case n := <-bobSub.C:
		t.Fatalf("bob should not receive alice's notification, got %v", n)
	default:
	}
}

func TestStream_CancelClosesChannel(t *testing.T) {
	stream := NewStream()
	recipient := uuid.New()

	sub := stream.Subscribe(recipient)
	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatalf("expected channel to be closed after cancel")
	}

	// A push after cancel must not panic or block.
	stream.Push(Notification{ID: uuid.New(), RecipientID: recipient})
}

func TestStream_ConcurrentPushAndCancel(t *testing.T) {
	stream := NewStream()
	recipient := uuid.New()

	// Racing Push against Cancel must never send on a closed channel.
	for i := 0; i < 1000; i++ {
		sub := stream.Subscribe(recipient)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			stream.Push(Notification{ID: uuid.New(), RecipientID: recipient})
		}()
		go func() {
			defer wg.Done()
			sub.Cancel()
		}()
		wg.Wait()

		// Drain so a delivered notification does not linger.
		for range sub.C {
		}
	}
}

func TestStream_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	stream := NewStream()
	recipient := uuid.New()

	sub := stream.Subscribe(recipient)
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+5; i++ {
			stream.Push(Notification{ID: uuid.New(), RecipientID: recipient})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("push blocked on a slow subscriber")
	}

	if got := len(sub.C); got != subscriberBuffer {
		t.Fatalf("expected %d buffered notifications, got %d", subscriberBuffer, got)
	}
}
