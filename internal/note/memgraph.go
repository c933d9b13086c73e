package note

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MemgraphStore persists notes in Memgraph over the Bolt protocol.
type MemgraphStore struct {
	Driver neo4j.DriverWithContext
}

func NewMemgraphStore(uri, username, password string) (*MemgraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Connected to Memgraph")
	return &MemgraphStore{Driver: driver}, nil
}

func (s *MemgraphStore) Close(ctx context.Context) error {
	return s.Driver.Close(ctx)
}

func (s *MemgraphStore) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Note(id);",
		"CREATE INDEX ON :Note(created_at);",
	}

	for _, q := range queries {
		if _, err := s.execute(ctx, q, nil); err != nil {
			log.Printf("Warning: failed to create index '%s': %v", q, err)
			// Index may already exist.
		}
	}
	return nil
}

func (s *MemgraphStore) Save(ctx context.Context, n Note) error {
	params := map[string]interface{}{
		"id":         n.ID,
		"text":       n.Text,
		"created_at": n.CreatedAt.UTC(),
		"tags":       n.Tags,
	}
	_, err := s.execute(ctx, saveNoteQuery, params)
	return err
}

func (s *MemgraphStore) Recent(ctx context.Context, limit int) ([]Note, error) {
	result, err := s.execute(ctx, recentNotesQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}

	var notes []Note
	for _, rec := range result.Records {
		id, _ := rec.Get("id")
		text, _ := rec.Get("text")
		createdAt, _ := rec.Get("created_at")
		tags, _ := rec.Get("tags")

		n := Note{}
		if v, ok := id.(string); ok {
			n.ID = v
		} else {
			continue
		}
		if v, ok := text.(string); ok {
			n.Text = v
		}
		if v, ok := createdAt.(time.Time); ok {
			n.CreatedAt = v
		}
		if vs, ok := tags.([]interface{}); ok {
			for _, v := range vs {
				if tag, ok := v.(string); ok {
					n.Tags = append(n.Tags, tag)
				}
			}
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (s *MemgraphStore) execute(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}
