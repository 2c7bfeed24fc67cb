package events

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Type names a domain event.
type Type string

const (
	FileRegistered Type = "file.registered"
	FileDeleted    Type = "file.deleted"
	// BlobOrphaned is emitted when a stored blob could not be removed after a
	// failed upload; the worker retries the delete.
	BlobOrphaned Type = "blob.orphaned"
)

const currentVersion = 1

var ErrMissingType = errors.New("event type is required")

// Event is the payload published to downstream consumers.
type Event struct {
	Type           Type      `json:"type"`
	FileID         string    `json:"fileId,omitempty"`
	RegistryNumber string    `json:"registryNumber,omitempty"`
	StorageKey     string    `json:"storageKey,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
	Version        int       `json:"version"`
}

// New stamps an event of type t with the current time and version.
func New(t Type) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), Version: currentVersion}
}

// Encode returns the JSON representation of an event.
func Encode(ev Event) ([]byte, error) {
	if strings.TrimSpace(string(ev.Type)) == "" {
		return nil, ErrMissingType
	}
	if ev.Version == 0 {
		ev.Version = currentVersion
	}
	return json.Marshal(ev)
}

// Decode parses a JSON payload into an Event.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	if strings.TrimSpace(string(ev.Type)) == "" {
		return Event{}, ErrMissingType
	}
	return ev, nil
}
