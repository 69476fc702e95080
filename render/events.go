// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/dxf"
)

// EventKind identifies a loader event.
type EventKind uint8

const (
	// EventLoaded is sent after Load has produced every drawable.
	EventLoaded EventKind = iota + 1
	// EventCleared is sent when the loaded content is discarded.
	EventCleared
	// EventDestroyed is sent once by Destroy.
	EventDestroyed
	// EventMessage carries a diagnostic for the user.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventCleared:
		return "cleared"
	case EventDestroyed:
		return "destroyed"
	case EventMessage:
		return "message"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is delivered to subscribers. Message and Level are set for
// EventMessage only.
type Event struct {
	Kind    EventKind
	Message string
	Level   slog.Level
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every event and returns a function that
// removes it. Handlers run synchronously, in subscription order.
func (l *Loader) Subscribe(fn func(Event)) (unsubscribe func()) {
	l.nextSub++
	id := l.nextSub
	l.subs = append(l.subs, subscriber{id: id, fn: fn})
	return func() {
		l.subs = slices.DeleteFunc(l.subs, func(s subscriber) bool { return s.id == id })
	}
}

func (l *Loader) emitEvent(e Event) {
	for _, s := range slices.Clone(l.subs) {
		s.fn(e)
	}
}

// message logs msg and forwards it to subscribers.
func (l *Loader) message(level slog.Level, msg string, args ...any) {
	dxf.Logger().Log(context.Background(), level, msg, args...)
	l.emitEvent(Event{Kind: EventMessage, Message: msg, Level: level})
}
