package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventKind identifies what happened to an announcement.
type EventKind string

const (
	EventNew    EventKind = "new"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// EventKinds lists the kinds subscribers can register for.
var EventKinds = []EventKind{EventNew, EventUpdate, EventDelete}

const wireEventPrefix = "announcement:"

// WireName returns the socket event name, e.g. "announcement:new".
func (k EventKind) WireName() string {
	return wireEventPrefix + string(k)
}

// ParseWireName is the inverse of WireName.
func ParseWireName(name string) (EventKind, error) {
	kind := EventKind(strings.TrimPrefix(name, wireEventPrefix))
	switch kind {
	case EventNew, EventUpdate, EventDelete:
		if strings.HasPrefix(name, wireEventPrefix) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown event %q", name)
}

// Event is what the transports produce and what subscribers receive.
type Event struct {
	Kind         EventKind    `json:"kind"`
	Announcement Announcement `json:"announcement"`
}

// InboundEvent is an event as received from a transport, before classification.
type InboundEvent struct {
	Kind EventKind
	Raw  RawAnnouncement
}

// WireMessage is the JSON frame exchanged over sockets.
type WireMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RawAnnouncement is the server shape. Several producers disagree on field
// names, so the aliases are accepted here and resolved by Normalize.
type RawAnnouncement struct {
	ID         string          `json:"id,omitempty"`
	MongoID    string          `json:"_id,omitempty"`
	Type       string          `json:"type"`
	Title      string          `json:"title"`
	Context    string          `json:"context,omitempty"`
	Message    string          `json:"message,omitempty"`
	Timestamp  *time.Time      `json:"timestamp,omitempty"`
	CreatedAt  *time.Time      `json:"createdAt,omitempty"`
	IsRead     bool            `json:"isRead"`
	ReadBy     []string        `json:"readBy,omitempty"`
	IsArchived bool            `json:"isArchived"`
	EntityID   string          `json:"entityId,omitempty"`
	Actions    []string        `json:"actions,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Normalize converts the server shape into an Announcement and classifies it.
// userID, when set, marks the entry read if it appears in ReadBy.
func (r RawAnnouncement) Normalize(userID string) (Announcement, error) {
	id := r.ID
	if id == "" {
		id = r.MongoID
	}
	if id == "" {
		return Announcement{}, fmt.Errorf("announcement without id (type=%q)", r.Type)
	}

	ctx := r.Context
	if ctx == "" {
		ctx = r.Message
	}

	var ts time.Time
	switch {
	case r.Timestamp != nil:
		ts = *r.Timestamp
	case r.CreatedAt != nil:
		ts = *r.CreatedAt
	}

	read := r.IsRead
	if !read && userID != "" {
		for _, reader := range r.ReadBy {
			if reader == userID {
				read = true
				break
			}
		}
	}

	a := Announcement{
		ID:         id,
		Type:       r.Type,
		Title:      r.Title,
		Context:    ctx,
		Timestamp:  ts,
		IsRead:     read,
		IsArchived: r.IsArchived,
		EntityID:   r.EntityID,
		Actions:    r.Actions,
		Payload:    r.Payload,
	}
	a.Classify()
	return a.Clone(), nil
}

// Raw converts an Announcement back into the server shape.
func (a Announcement) Raw() RawAnnouncement {
	ts := a.Timestamp
	return RawAnnouncement{
		ID:         a.ID,
		Type:       a.Type,
		Title:      a.Title,
		Context:    a.Context,
		Timestamp:  &ts,
		IsRead:     a.IsRead,
		IsArchived: a.IsArchived,
		EntityID:   a.EntityID,
		Actions:    a.Actions,
		Payload:    a.Payload,
	}
}
