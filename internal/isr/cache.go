// Package isr serves generated page props with stale-while-revalidate semantics:
// an entry is fresh for its revalidate window, then served stale while exactly one
// background regeneration replaces it. Failed regenerations keep the old entry.
package isr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"golang.org/x/sync/singleflight"
)

// DefaultGenerateTimeout bounds a single background generation.
const DefaultGenerateTimeout = 30 * time.Second

// Key identifies a generated page.
type Key struct {
	Path   string `json:"path"`
	Locale string `json:"locale"`
}

func (k Key) String() string {
	return k.Locale + ":" + k.Path
}

// Entry is one generated page.
type Entry struct {
	Key          Key
	Props        pages.Props
	Revalidate   time.Duration
	GeneratedAt  time.Time
	GenerationID uuid.UUID
}

// Status describes what a lookup found.
type Status int

const (
	StatusMiss Status = iota
	StatusFresh
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusMiss:
		return "miss"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Store persists generated entries. Get returns nil, nil when absent.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key Key) error
}

// GenerateFunc produces fresh props for key.
type GenerateFunc func(ctx context.Context, key Key) (*pages.StaticProps, error)

// Options configures a Cache.
type Options struct {
	Revalidate      time.Duration
	GenerateTimeout time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// Cache coordinates lookups and regenerations for the page route.
type Cache struct {
	store    Store
	generate GenerateFunc
	group    singleflight.Group

	revalidate time.Duration
	timeout    time.Duration
	log        *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	inflight map[Key]bool
	closed   bool
	wg       sync.WaitGroup
}

// New creates a cache over store.
func New(store Store, generate GenerateFunc, opts Options) *Cache {
	if opts.Revalidate <= 0 {
		opts.Revalidate = pages.Revalidate
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = DefaultGenerateTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:      store,
		generate:   generate,
		revalidate: opts.Revalidate,
		timeout:    opts.GenerateTimeout,
		log:        opts.Logger,
		now:        opts.Now,
		inflight:   make(map[Key]bool),
	}
}

// Lookup returns the stored entry for key. A miss or a stale entry schedules a
// background regeneration; at most one runs per key at any time.
func (c *Cache) Lookup(ctx context.Context, key Key) (*Entry, Status, error) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, StatusMiss, fmt.Errorf("failed to read generated page %s: %w", key, err)
	}
	if entry == nil {
		c.trigger(key, uuid.Nil)
		return nil, StatusMiss, nil
	}
	if c.isFresh(entry) {
		return entry, StatusFresh, nil
	}
	c.trigger(key, entry.GenerationID)
	return entry, StatusStale, nil
}

// Generate regenerates key now and waits for the result. It joins a
// regeneration already running for key instead of starting a second one.
func (c *Cache) Generate(ctx context.Context, key Key) (*Entry, error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.run(key, uuid.Nil, true)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the entry for key so the next request generates it again.
func (c *Cache) Invalidate(ctx context.Context, key Key) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", key, err)
	}
	return nil
}

// Wait blocks until scheduled background regenerations have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close stops scheduling regenerations and waits for running ones.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Cache) isFresh(entry *Entry) bool {
	window := entry.Revalidate
	if window <= 0 {
		window = c.revalidate
	}
	return c.now().Sub(entry.GeneratedAt) < window
}

// trigger schedules a background regeneration of key unless one is running.
// observed is the generation the caller saw (uuid.Nil for a miss).
func (c *Cache) trigger(key Key, observed uuid.UUID) {
	c.mu.Lock()
	if c.closed || c.inflight[key] {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		_, err, _ := c.group.Do(key.String(), func() (any, error) {
			return c.run(key, observed, false)
		})
		if err != nil {
			c.log.Warn("page regeneration failed", "key", key.String(), "error", err)
		}
	}()
}

// run generates and stores key. Unless forced, it skips the work when the
// stored entry has changed since the caller observed it.
func (c *Cache) run(key Key, observed uuid.UUID, force bool) (*Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if !force {
		current, err := c.store.Get(ctx, key)
		if err == nil && current != nil && current.GenerationID != observed {
			return current, nil
		}
	}

	start := c.now()
	props, err := c.generate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", key, err)
	}

	entry := &Entry{
		Key:          key,
		Props:        props.Props,
		Revalidate:   props.Revalidate,
		GeneratedAt:  c.now(),
		GenerationID: uuid.New(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.log.Error("failed to store generated page", "key", key.String(), "error", err)
	}

	c.log.Debug("page generated",
		"key", key.String(),
		"found", entry.Props.Page != nil,
		"duration", c.now().Sub(start),
		"generation_id", entry.GenerationID.String(),
	)
	return entry, nil
}
