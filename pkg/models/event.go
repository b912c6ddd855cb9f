package models

import "time"

// Change event kinds
const (
	ChangeKindIntegration = "integration"
	ChangeKindConnection  = "connection"
	ChangeKindDraft       = "draft"
)

// Change event actions
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// ChangeEvent is published by the backend when a document changes
type ChangeEvent struct {
	Kind   string    `json:"kind"`
	Action string    `json:"action"`
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
}
