// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestBus_OrderedDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	inbox, err := bus.Subscribe("main")
	require.NoError(t, err)

	// Sends never block even when nobody is reading.
	for i := 0; i < 100; i++ {
		p := Payload{Files: []string{string(rune('a' + i%26))}}
		require.NoError(t, bus.Send("browser", "main", KindSelectionChanged, p))
	}

	for i := 0; i < 100; i++ {
		msg := recv(t, inbox)
		want := string(rune('a' + i%26))
		if len(msg.Payload.Files) != 1 || msg.Payload.Files[0] != want {
			t.Fatalf("message %d = %v, want [%s]", i, msg.Payload.Files, want)
		}
		if msg.From != "browser" || msg.To != "main" || msg.Kind != KindSelectionChanged {
			t.Errorf("message %d header = %+v", i, msg)
		}
	}
}

func TestBus_SendBeforeSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	require.NoError(t, bus.Send("main", "late", KindInitialSelection, Payload{Folders: []string{"x"}}))

	inbox, err := bus.Subscribe("late")
	require.NoError(t, err)
	msg := recv(t, inbox)
	if msg.Kind != KindInitialSelection || msg.Payload.Folders[0] != "x" {
		t.Errorf("got %+v", msg)
	}
}

func TestBus_PayloadCopied(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	inbox, err := bus.Subscribe("main")
	require.NoError(t, err)

	p := Payload{Files: []string{"a.md"}}
	require.NoError(t, bus.Send("b", "main", KindSelectionChanged, p))
	p.Files[0] = "mutated"

	if got := recv(t, inbox).Payload.Files[0]; got != "a.md" {
		t.Errorf("delivered payload = %q, sender mutation leaked", got)
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	inbox, err := bus.Subscribe("x")
	require.NoError(t, err)

	bus.Unsubscribe("x")
	select {
	case _, ok := <-inbox:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBus_Closed(t *testing.T) {
	bus := NewBus()
	bus.Close()
	bus.Close()

	if err := bus.Send("a", "b", KindSelectionChanged, Payload{}); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Send after Close = %v", err)
	}
	if _, err := bus.Subscribe("a"); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Subscribe after Close = %v", err)
	}
}

func TestMessageKind_String(t *testing.T) {
	tests := map[MessageKind]string{
		KindSelectionChanged: "selection-changed",
		KindInitialSelection: "initial-selection",
		KindBrowserClosed:    "browser-closed",
		MessageKind(99):      "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
