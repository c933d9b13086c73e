package note

import (
	"context"
	"time"
)

// Note is one raw note record as the capture layer stores it. The graph
// treats notes as immutable input; nothing downstream writes back to them.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags"`
}

// HasTag reports whether the note carries the given tag.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Store is the read side of the note capture layer. Recent returns at most
// limit notes, newest first. A graph session takes one snapshot per open or
// per tag-filter change and never patches it incrementally.
type Store interface {
	Recent(ctx context.Context, limit int) ([]Note, error)
}
