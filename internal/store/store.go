package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"brandpilot/internal/models"
)

// Conversation holds the ordered transcript for the active session together
// with the single-flight busy gate. It is the only owner of the message
// sequence; the generation controller mutates it through the methods below
// and never concurrently with itself (TryBegin admits one lifecycle at a
// time).
type Conversation struct {
	mu       sync.RWMutex
	messages []models.Message
	busy     bool
}

func NewConversation() *Conversation {
	return &Conversation{messages: make([]models.Message, 0, 16)}
}

// Append inserts the message at the tail. A missing ID gets a fresh uuid and
// a zero CreatedAt gets the current time, so transcript order matches
// timestamp order.
func (c *Conversation) Append(msg models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	c.messages = append(c.messages, msg)
}

// ReplaceByID swaps the entry with the given id for msg in place, keeping its
// position. Reports whether an entry was replaced; no-op when the id is
// absent.
func (c *Conversation) ReplaceByID(id string, msg models.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			if msg.ID == "" {
				msg.ID = uuid.NewString()
			}
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = time.Now().UTC()
			}
			c.messages[i] = msg
			return true
		}
	}
	return false
}

// RemoveByID deletes the entry with the given id, preserving the order of the
// rest. Reports whether an entry was removed; no-op when the id is absent.
func (c *Conversation) RemoveByID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []models.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Clear drops the transcript, starting a fresh session. The busy flag is left
// untouched.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
}

// TryBegin claims the busy gate. It reports false when a request lifecycle is
// already in flight, in which case the caller must not proceed.
func (c *Conversation) TryBegin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

// End releases the busy gate.
func (c *Conversation) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
}

// Busy reports whether a request lifecycle is in flight.
func (c *Conversation) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}
