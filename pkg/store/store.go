// Package store persists diary, character and weekly documents.
package store

import (
	"context"
	"errors"
	"time"

	"moodtoon/pkg/schema"
)

const (
	Diaries    = "diaries"
	Characters = "characters"
	Weeklies   = "weeklies"
)

// ErrNotFound is returned by Get when no document has the id.
var ErrNotFound = errors.New("document not found")

// Filter matches documents whose top-level fields equal the given values.
type Filter map[string]any

// Store is a minimal document store. Query decodes into out, which must be a
// pointer to a slice, newest document first.
type Store interface {
	Put(ctx context.Context, collection, id string, record any) error
	Get(ctx context.Context, collection, id string, out any) error
	Query(ctx context.Context, collection string, filter Filter, out any) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Diary struct {
	ID        string                `json:"id" bson:"_id"`
	UserID    string                `json:"userId"`
	Text      string                `json:"text"`
	Analysis  schema.AnalysisRecord `json:"analysis"`
	Story     *schema.Story         `json:"story,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

type Character struct {
	ID          string            `json:"id" bson:"_id"`
	Description string            `json:"description"`
	Images      map[string]string `json:"images"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Descriptor converts the stored character into the prompt builder's input.
func (c Character) Descriptor() *schema.CharacterDescriptor {
	return &schema.CharacterDescriptor{Description: c.Description, BaseImages: c.Images}
}

type Weekly struct {
	ID        string               `json:"id" bson:"_id"`
	UserID    string               `json:"userId"`
	Summary   schema.WeeklySummary `json:"summary"`
	CreatedAt time.Time            `json:"createdAt"`
}
