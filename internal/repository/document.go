package repository

import (
	"encoding/json"
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

// RawDocument is one stored document as the live query returns it. Body is
// the JSON object exactly as written by the public site; typing and
// defaulting happen in the stream adapter.
type RawDocument struct {
	ID        string
	Body      json.RawMessage
	CreatedAt *time.Time
}

// Snapshot is the full contents of a collection at one point in time.
// A Snapshot with a non-nil Err is terminal: the channel is closed after it.
type Snapshot struct {
	Collection model.Collection
	Docs       []RawDocument
	Err        error
}
