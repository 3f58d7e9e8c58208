// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/logging"
)

// ErrNotOpen is returned when a closed browser session is used.
var ErrNotOpen = errors.New("browser is not open")

// Window manages the single KB browser instance on behalf of the main
// screen. At most one Session is open at a time.
type Window struct {
	bus    *Bus
	mainID string

	mu      sync.Mutex
	session *Session
	log     *zap.Logger
}

// NewWindow returns a controller that reports browser activity to mainID.
func NewWindow(bus *Bus, mainID string) *Window {
	return &Window{
		bus:    bus,
		mainID: mainID,
		log:    logging.Named("selection.window"),
	}
}

// MainID is the bus address of the main screen.
func (w *Window) MainID() string { return w.mainID }

// Open starts a browser seeded with current. If a browser is already open
// it is returned unchanged with created=false and no new seed is sent.
func (w *Window) Open(current Payload) (s *Session, created bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session != nil {
		w.log.Debug("browser already open, focusing", zap.String("id", w.session.id))
		return w.session, false, nil
	}

	id := "browser-" + uuid.NewString()
	inbox, err := w.bus.Subscribe(id)
	if err != nil {
		return nil, false, err
	}
	if err := w.bus.Send(w.mainID, id, KindInitialSelection, current); err != nil {
		w.bus.Unsubscribe(id)
		return nil, false, err
	}

	w.session = &Session{id: id, window: w, inbox: inbox}
	w.log.Info("browser opened",
		zap.String("id", id),
		zap.Int("files", len(current.Files)),
		zap.Int("folders", len(current.Folders)),
	)
	return w.session, true, nil
}

// Current returns the open session or nil.
func (w *Window) Current() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

// IsOpen reports whether a browser session is open.
func (w *Window) IsOpen() bool { return w.Current() != nil }

func (w *Window) release(s *Session) {
	w.mu.Lock()
	if w.session == s {
		w.session = nil
	}
	w.mu.Unlock()
}

// Session is the browser side of an open window.
type Session struct {
	id     string
	window *Window
	inbox  <-chan Message

	mu     sync.Mutex
	closed bool
}

// ID is the session's bus address.
func (s *Session) ID() string { return s.id }

// Inbox delivers messages addressed to the browser, starting with the
// initial selection.
func (s *Session) Inbox() <-chan Message { return s.inbox }

// Closed reports whether Apply or Cancel has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Notify publishes the browser's full selection to the main screen.
func (s *Session) Notify(p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotOpen
	}
	return s.window.bus.Send(s.id, s.window.mainID, KindSelectionChanged, p)
}

// Apply publishes p and closes the browser.
func (s *Session) Apply(p Payload) error {
	if err := s.Notify(p); err != nil {
		return err
	}
	return s.close("apply")
}

// Cancel closes the browser without a further notification. Changes that
// were already published stay applied on the main screen.
func (s *Session) Cancel() error {
	return s.close("cancel")
}

func (s *Session) close(reason string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotOpen
	}
	s.closed = true
	s.mu.Unlock()

	w := s.window
	w.release(s)
	w.bus.Unsubscribe(s.id)
	w.log.Info("browser closed", zap.String("id", s.id), zap.String("reason", reason))
	if err := w.bus.Send(s.id, w.mainID, KindBrowserClosed, Payload{}); err != nil && !errors.Is(err, ErrBusClosed) {
		return err
	}
	return nil
}
