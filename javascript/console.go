package javascript

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// Message is one line written by a running scene or by the build.
type Message struct {
	Time   time.Time
	Source string
	Text   string
}

// Console carries messages from the build goroutine to the UI. Writers
// never block: when the buffer is full the message is dropped and counted.
// Only the UI goroutine drains it, so UI state is never touched by the build.
type Console struct {
	ch      chan Message
	dropped atomic.Int64
}

// NewConsole returns a console buffering up to size messages.
func NewConsole(size int) *Console {
	return &Console{ch: make(chan Message, max(size, 1))}
}

// Printf queues a message. A nil console writes to the standard logger.
func (c *Console) Printf(source, format string, args ...any) {
	msg := Message{Time: time.Now(), Source: source, Text: fmt.Sprintf(format, args...)}
	if c == nil {
		log.Printf("[%s] %s", msg.Source, msg.Text)
		return
	}
	select {
	case c.ch <- msg:
	default:
		c.dropped.Add(1)
	}
}

// Drain returns the queued messages without waiting.
func (c *Console) Drain() []Message {
	var msgs []Message
	for {
		select {
		case m := <-c.ch:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

// Dropped returns how many messages were lost to a full buffer.
func (c *Console) Dropped() int64 { return c.dropped.Load() }
