package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/giantswarm/perslc/internal/sentinel"
)

// ErrChannelFull is returned by TrySend when no slot is free.
const ErrChannelFull = sentinel.Error("command channel full")

// ErrChannelClosed is returned by TrySend and Receive after Close.
const ErrChannelClosed = sentinel.Error("command channel closed")

// Channel is a bounded single-producer, single-consumer queue of command
// words.
//
// Close does not close the underlying Go channel; it closes a separate done
// channel, so a TrySend racing with Close can never panic on a closed channel.
type Channel struct {
	words     chan uint64
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel creates a Channel holding at most capacity pending words.
// Panics if capacity < 1.
func NewChannel(capacity int) *Channel {
	if capacity < 1 {
		panic(fmt.Sprintf("perslc: command channel capacity must be greater than 0, got %d", capacity))
	}
	return &Channel{
		words: make(chan uint64, capacity),
		done:  make(chan struct{}),
	}
}

// TrySend enqueues word without blocking.
func (c *Channel) TrySend(word uint64) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.words <- word:
		return nil
	default:
		return ErrChannelFull
	}
}

// Receive blocks until a word is available, the channel is closed, or ctx is
// done. Words already queued when Close is called are still delivered.
func (c *Channel) Receive(ctx context.Context) (uint64, error) {
	select {
	case w := <-c.words:
		return w, nil
	default:
	}

	select {
	case w := <-c.words:
		return w, nil
	case <-c.done:
		select {
		case w := <-c.words:
			return w, nil
		default:
			return 0, ErrChannelClosed
		}
	case <-ctx.Done():
		return 0, fmt.Errorf("receive command: %w", ctx.Err())
	}
}

// Pending returns the number of queued words.
func (c *Channel) Pending() int {
	return len(c.words)
}

// Close wakes a blocked receiver and rejects later sends. Safe to call more
// than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
