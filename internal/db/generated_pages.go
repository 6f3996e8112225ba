package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
)

// GeneratedPage is a row of the generated_pages table.
type GeneratedPage struct {
	Path         string
	Locale       string
	Props        []byte
	RevalidateMS int64
	GenerationID uuid.UUID
	GeneratedAt  time.Time
}

// ToEntry decodes the row into a cache entry.
func (p *GeneratedPage) ToEntry() (*isr.Entry, error) {
	var props pages.Props
	if err := json.Unmarshal(p.Props, &props); err != nil {
		return nil, fmt.Errorf("failed to decode props for %s: %w", p.Path, err)
	}
	return &isr.Entry{
		Key:          isr.Key{Path: p.Path, Locale: p.Locale},
		Props:        props,
		Revalidate:   time.Duration(p.RevalidateMS) * time.Millisecond,
		GeneratedAt:  p.GeneratedAt,
		GenerationID: p.GenerationID,
	}, nil
}

// NewGeneratedPage encodes a cache entry as a row.
func NewGeneratedPage(entry *isr.Entry) (*GeneratedPage, error) {
	props, err := json.Marshal(entry.Props)
	if err != nil {
		return nil, fmt.Errorf("failed to encode props for %s: %w", entry.Key.Path, err)
	}
	return &GeneratedPage{
		Path:         entry.Key.Path,
		Locale:       entry.Key.Locale,
		Props:        props,
		RevalidateMS: entry.Revalidate.Milliseconds(),
		GenerationID: entry.GenerationID,
		GeneratedAt:  entry.GeneratedAt,
	}, nil
}

// PageStore implements isr.Store on the generated_pages table.
type PageStore struct {
	db *DB
}

// NewPageStore creates a store backed by database.
func NewPageStore(database *DB) *PageStore {
	return &PageStore{db: database}
}

// Get returns the generated page for key, or nil when none exists.
func (s *PageStore) Get(ctx context.Context, key isr.Key) (*isr.Entry, error) {
	var row GeneratedPage
	err := s.db.pool.QueryRow(ctx,
		`SELECT path, locale, props, revalidate_ms, generation_id, generated_at
		 FROM generated_pages WHERE path = $1 AND locale = $2`,
		key.Path, key.Locale,
	).Scan(&row.Path, &row.Locale, &row.Props, &row.RevalidateMS, &row.GenerationID, &row.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generated page %s: %w", key, err)
	}
	return row.ToEntry()
}

// Put upserts entry. An older generation never overwrites a newer one.
func (s *PageStore) Put(ctx context.Context, entry *isr.Entry) error {
	row, err := NewGeneratedPage(entry)
	if err != nil {
		return err
	}
	_, err = s.db.pool.Exec(ctx,
		`INSERT INTO generated_pages (path, locale, props, revalidate_ms, generation_id, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (path, locale) DO UPDATE SET
		   props = EXCLUDED.props,
		   revalidate_ms = EXCLUDED.revalidate_ms,
		   generation_id = EXCLUDED.generation_id,
		   generated_at = EXCLUDED.generated_at
		 WHERE generated_pages.generated_at <= EXCLUDED.generated_at`,
		row.Path, row.Locale, row.Props, row.RevalidateMS, row.GenerationID, row.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save generated page %s: %w", entry.Key, err)
	}
	return nil
}

// Delete removes the generated page for key.
func (s *PageStore) Delete(ctx context.Context, key isr.Key) error {
	_, err := s.db.pool.Exec(ctx,
		`DELETE FROM generated_pages WHERE path = $1 AND locale = $2`,
		key.Path, key.Locale,
	)
	if err != nil {
		return fmt.Errorf("failed to delete generated page %s: %w", key, err)
	}
	return nil
}

// DeleteOlderThan removes pages generated before cutoff and returns how many were removed.
func (s *PageStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.pool.Exec(ctx,
		`DELETE FROM generated_pages WHERE generated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune generated pages: %w", err)
	}
	return tag.RowsAffected(), nil
}
