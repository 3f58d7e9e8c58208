// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/logging"
)

// MessageKind identifies a cross-screen notification.
type MessageKind int

const (
	// KindSelectionChanged carries the sender's full selection after a change.
	KindSelectionChanged MessageKind = iota
	// KindInitialSelection seeds a freshly opened browser.
	KindInitialSelection
	// KindBrowserClosed tells the main screen the browser went away.
	KindBrowserClosed
)

func (k MessageKind) String() string {
	switch k {
	case KindSelectionChanged:
		return "selection-changed"
	case KindInitialSelection:
		return "initial-selection"
	case KindBrowserClosed:
		return "browser-closed"
	}
	return "unknown"
}

// Message is one fire-and-forget notification. Payload is always a copy.
type Message struct {
	ID      uuid.UUID
	From    string
	To      string
	Kind    MessageKind
	Payload Payload
	SentAt  time.Time
}

// ErrBusClosed is returned by Send after Close.
var ErrBusClosed = errors.New("selection bus closed")

// Bus delivers messages between screens. Each screen reads from its own
// mailbox; delivery is in send order per mailbox and never blocks the
// sender. A mailbox is created on first use by either side, so a message
// sent before the receiver subscribes is kept until it does.
type Bus struct {
	mu        sync.Mutex
	mailboxes map[string]*mailbox
	closed    bool
	log       *zap.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		mailboxes: make(map[string]*mailbox),
		log:       logging.Named("selection.bus"),
	}
}

// Subscribe returns the receive channel of window's mailbox. The channel is
// closed by Unsubscribe or Close.
func (b *Bus) Subscribe(window string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.mailboxLocked(window).out, nil
}

// Unsubscribe drops window's mailbox and any undelivered messages.
func (b *Bus) Unsubscribe(window string) {
	b.mu.Lock()
	mb, ok := b.mailboxes[window]
	delete(b.mailboxes, window)
	b.mu.Unlock()
	if ok {
		mb.close()
	}
}

// Send queues a copy of payload for window to.
func (b *Bus) Send(from, to string, kind MessageKind, payload Payload) error {
	msg := Message{
		ID:      uuid.New(),
		From:    from,
		To:      to,
		Kind:    kind,
		Payload: payload.Clone(),
		SentAt:  time.Now(),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	mb := b.mailboxLocked(to)
	b.mu.Unlock()

	mb.push(msg)
	b.log.Debug("message sent",
		zap.String("id", msg.ID.String()),
		zap.String("kind", kind.String()),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("files", len(payload.Files)),
		zap.Int("folders", len(payload.Folders)),
	)
	return nil
}

// Close shuts every mailbox down.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	boxes := b.mailboxes
	b.mailboxes = make(map[string]*mailbox)
	b.mu.Unlock()

	for _, mb := range boxes {
		mb.close()
	}
}

func (b *Bus) mailboxLocked(window string) *mailbox {
	mb, ok := b.mailboxes[window]
	if !ok {
		mb = newMailbox()
		b.mailboxes[window] = mb
	}
	return mb
}

// mailbox is an unbounded FIFO drained into out by one goroutine.
type mailbox struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
	done   chan struct{}
	out    chan Message
	once   sync.Once
}

func newMailbox() *mailbox {
	mb := &mailbox{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Message),
	}
	go mb.pump()
	return mb
}

func (mb *mailbox) push(msg Message) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
	select {
	case mb.notify <- struct{}{}:
	default:
	}
}

func (mb *mailbox) pump() {
	defer close(mb.out)
	for {
		mb.mu.Lock()
		if len(mb.queue) == 0 {
			mb.mu.Unlock()
			select {
			case <-mb.notify:
				continue
			case <-mb.done:
				return
			}
		}
		next := mb.queue[0]
		mb.queue = mb.queue[1:]
		mb.mu.Unlock()

		select {
		case mb.out <- next:
		case <-mb.done:
			return
		}
	}
}

func (mb *mailbox) close() {
	mb.once.Do(func() { close(mb.done) })
}
