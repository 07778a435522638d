// Package events defines event types for transformation revision lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/revisio/revisio/pkg/models"
)

type EventType string

const Topic = "revisio.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RevisionCreatedEvent  EventType = "revision.created"
	RevisionUpdatedEvent  EventType = "revision.updated"
	RevisionReleasedEvent EventType = "revision.released"
	RevisionDisabledEvent EventType = "revision.disabled"
	RevisionDeletedEvent  EventType = "revision.deleted"
	NestingRebuiltEvent   EventType = "nesting.rebuilt"
)

type BaseEvent struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	Timestamp       time.Time      `json:"timestamp"`
	RevisionID      uuid.UUID      `json:"revision_id"`
	RevisionGroupID uuid.UUID      `json:"revision_group_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type RevisionCreated struct {
	BaseEvent

	RevisionType models.Type `json:"revision_type"`
	VersionTag   string      `json:"version_tag"`
}

func (e RevisionCreated) GetType() EventType {
	return RevisionCreatedEvent
}

type RevisionUpdated struct {
	BaseEvent

	VersionTag string `json:"version_tag"`
}

func (e RevisionUpdated) GetType() EventType {
	return RevisionUpdatedEvent
}

type RevisionReleased struct {
	BaseEvent

	VersionTag        string    `json:"version_tag"`
	ReleasedTimestamp time.Time `json:"released_timestamp"`
}

func (e RevisionReleased) GetType() EventType {
	return RevisionReleasedEvent
}

type RevisionDisabled struct {
	BaseEvent

	VersionTag        string    `json:"version_tag"`
	DisabledTimestamp time.Time `json:"disabled_timestamp"`
}

func (e RevisionDisabled) GetType() EventType {
	return RevisionDisabledEvent
}

type RevisionDeleted struct {
	BaseEvent
}

func (e RevisionDeleted) GetType() EventType {
	return RevisionDeletedEvent
}

// NestingRebuilt signals that a workflow's closure rows were recomputed.
type NestingRebuilt struct {
	BaseEvent

	RowCount int `json:"row_count"`
	MaxDepth int `json:"max_depth"`
}

func (e NestingRebuilt) GetType() EventType {
	return NestingRebuiltEvent
}
