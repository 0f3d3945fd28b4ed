// Package web provides HTTP request and response types for the process API.
package web

import "encoding/json"

// CreateProcessRequest represents the request body for creating a new
// process group.
type CreateProcessRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// SaveRevisionRequest represents the request body for saving a new revision
// of an existing process group. Items replaces the item document wholesale;
// Edits replays an edit batch on top of the latest revision. Items wins when
// both are given. Items stays raw here so it can be schema-checked before
// decoding.
type SaveRevisionRequest struct {
	Title string          `json:"title,omitempty" validate:"omitempty,max=200"`
	Items json.RawMessage `json:"items,omitempty"`
	Edits json.RawMessage `json:"edits,omitempty"`
}

// StartExecutionRequest represents the request body for starting an
// execution. An empty Revision pins the group's latest revision.
type StartExecutionRequest struct {
	Revision string `json:"revision,omitempty"`
}
