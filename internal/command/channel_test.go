package command

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewChannelPanicsOnInvalidCapacity(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for zero capacity")
		}
	}()
	NewChannel(0)
}

func TestChannel_TrySendFull(t *testing.T) {
	t.Parallel()

	ch := NewChannel(1)
	if err := ch.TrySend(1); err != nil {
		t.Fatalf("first TrySend() error: %v", err)
	}
	if err := ch.TrySend(2); !errors.Is(err, ErrChannelFull) {
		t.Fatalf("second TrySend() error = %v, want ErrChannelFull", err)
	}
	if got := ch.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}

	w, err := ch.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if w != 1 {
		t.Errorf("Receive() = %d, want the first word", w)
	}
}

func TestChannel_ReceiveBlocksUntilSend(t *testing.T) {
	t.Parallel()

	ch := NewChannel(1)
	got := make(chan uint64, 1)
	go func() {
		w, err := ch.Receive(context.Background())
		if err == nil {
			got <- w
		}
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("Receive returned before any word was sent")
	case <-time.After(20 * time.Millisecond):
	}

	if err := ch.TrySend(0xabc); err != nil {
		t.Fatalf("TrySend() error: %v", err)
	}

	select {
	case w := <-got:
		if w != 0xabc {
			t.Errorf("Receive() = %#x, want 0xabc", w)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after send")
	}
}

func TestChannel_Close(t *testing.T) {
	t.Parallel()

	t.Run("wakes blocked receiver", func(t *testing.T) {
		t.Parallel()

		ch := NewChannel(1)
		errCh := make(chan error, 1)
		go func() {
			_, err := ch.Receive(context.Background())
			errCh <- err
		}()

		ch.Close()
		select {
		case err := <-errCh:
			if !errors.Is(err, ErrChannelClosed) {
				t.Errorf("Receive() error = %v, want ErrChannelClosed", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Receive did not return after Close")
		}
	})

	t.Run("rejects sends and drains queued word", func(t *testing.T) {
		t.Parallel()

		ch := NewChannel(1)
		if err := ch.TrySend(5); err != nil {
			t.Fatalf("TrySend() error: %v", err)
		}
		ch.Close()
		ch.Close()

		if err := ch.TrySend(6); !errors.Is(err, ErrChannelClosed) {
			t.Errorf("TrySend() after Close error = %v, want ErrChannelClosed", err)
		}
		w, err := ch.Receive(context.Background())
		if err != nil || w != 5 {
			t.Errorf("Receive() = (%d, %v), want queued word 5", w, err)
		}
		if _, err := ch.Receive(context.Background()); !errors.Is(err, ErrChannelClosed) {
			t.Errorf("Receive() on drained closed channel error = %v, want ErrChannelClosed", err)
		}
	})
}

func TestChannel_ReceiveContextCanceled(t *testing.T) {
	t.Parallel()

	ch := NewChannel(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ch.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() error = %v, want context.Canceled", err)
	}
}
