// Package session binds a catalog, a workspace and a repository into the unit
// the CLI works with: one editing session over one workspace.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/catalog"
	"github.com/xkilldash9x/dorkbuilder/internal/query"
	"github.com/xkilldash9x/dorkbuilder/internal/search"
	"github.com/xkilldash9x/dorkbuilder/internal/store"
	"github.com/xkilldash9x/dorkbuilder/internal/workspace"
)

var (
	// ErrUnknownTemplate is returned when a template reference matches neither
	// an id nor an operator.
	ErrUnknownTemplate = errors.New("unknown block template")
	// ErrEmptyQuery is returned by Search when no block has a value.
	ErrEmptyQuery = errors.New("query is empty")
)

// Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	ws      *workspace.Workspace
	repo    store.Repository
	engine  schemas.SearchEngine
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

type options struct {
	logger        *zap.Logger
	defaultEngine schemas.SearchEngine
	catalogOpts   []catalog.Option
}

// Option configures Open.
type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithDefaultEngine sets the engine used when a caller names none.
func WithDefaultEngine(engine schemas.SearchEngine) Option {
	return func(o *options) { o.defaultEngine = engine }
}

// WithCatalogOptions forwards options to the underlying catalog.
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(o *options) { o.catalogOpts = append(o.catalogOpts, opts...) }
}

// Open builds a session and restores the custom catalog from repo.
func Open(ctx context.Context, repo store.Repository, opts ...Option) (*Session, error) {
	if repo == nil {
		return nil, fmt.Errorf("cannot open session with a nil repository")
	}
	o := options{defaultEngine: schemas.EngineGoogle}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if _, err := search.Lookup(o.defaultEngine); err != nil {
		return nil, fmt.Errorf("invalid default engine: %w", err)
	}

	logger := o.logger.Named("session")
	cat := catalog.New(append([]catalog.Option{catalog.WithLogger(o.logger)}, o.catalogOpts...)...)

	state, err := repo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom catalog: %w", err)
	}
	if err := cat.Restore(state); err != nil {
		return nil, fmt.Errorf("failed to restore custom catalog: %w", err)
	}
	logger.Debug("Session opened.", zap.Int("custom_templates", len(state.Custom)))

	return &Session{
		catalog: cat,
		ws:      workspace.New(),
		repo:    repo,
		engine:  o.defaultEngine,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Close releases the repository.
func (s *Session) Close() error {
	return s.repo.Close()
}

// -- Catalog --

// Templates lists predefined templates followed by custom ones.
func (s *Session) Templates() []schemas.BlockTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.All()
}

// CustomTemplates lists custom templates in registration order.
func (s *Session) CustomTemplates() []schemas.BlockTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Custom()
}

// Resolve finds a template by id ("site", "custom_tpl_2") or by operator
// ("site:", "site", case-insensitive).
func (s *Session) Resolve(ref string) (schemas.BlockTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(ref)
}

func (s *Session) resolve(ref string) (schemas.BlockTemplate, error) {
	ref = strings.TrimSpace(ref)
	if tpl, ok := s.catalog.Template(ref); ok {
		return tpl, nil
	}
	if tpl, ok := s.catalog.TemplateByOperator(ref); ok {
		return tpl, nil
	}
	return schemas.BlockTemplate{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, ref)
}

// RegisterCustom registers a custom template and persists the catalog. When
// persisting fails the template stays registered for this session and the
// error is returned alongside it.
func (s *Session) RegisterCustom(ctx context.Context, operator, placeholder, description string, opts ...catalog.RegisterOption) (schemas.BlockTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, err := s.catalog.RegisterCustom(operator, placeholder, description, opts...)
	if err != nil {
		return schemas.BlockTemplate{}, err
	}
	if err := s.repo.SaveCatalog(ctx, s.catalog.State()); err != nil {
		s.logger.Warn("Custom template registered but not saved.", zap.String("id", tpl.ID), zap.Error(err))
		return tpl, fmt.Errorf("failed to save custom catalog: %w", err)
	}
	return tpl, nil
}

// -- Workspace --

// Add places the template named by ref at index (negative appends) and returns
// the new block id.
func (s *Session) Add(ref, value string, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	opts := []workspace.AddOption{workspace.WithValue(value)}
	if index >= 0 {
		opts = append(opts, workspace.AtIndex(index))
	}
	return s.ws.Add(tpl, opts...), nil
}

// Import adds raw dork text as a single operator-less block.
func (s *Session) Import(dork, label string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Import(dork, label)
}

// ImportEntry imports a GHDB entry, labelled with its title.
func (s *Session) ImportEntry(e schemas.GHDBEntry) string {
	label := e.Title
	if label == "" {
		label = "GHDB " + e.ID
	}
	return s.Import(e.Dork, label)
}

// Set updates the value of the block with the given id.
func (s *Session) Set(id, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Update(id, value)
}

// Remove deletes the block with the given id.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Remove(id)
}

// Move shifts the block at from to position to.
func (s *Session) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Reorder(from, to)
}

// Clear empties the workspace.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws.Clear()
}

// Blocks returns a copy of the workspace in order.
func (s *Session) Blocks() []schemas.BlockInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.Snapshot()
}

// BlockAt returns the block at position i.
func (s *Session) BlockAt(i int) (schemas.BlockInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.At(i)
}

// -- Query and search --

// Query formats the current workspace.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.Format(s.ws.Snapshot())
}

// Engine returns the active engine.
func (s *Session) Engine() schemas.SearchEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// SetEngine changes the active engine. Unknown names are rejected.
func (s *Session) SetEngine(name string) error {
	engine, err := search.ParseEngine(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	return nil
}

// ResolveEngine maps a user-supplied engine name to an engine. An empty name
// selects the active engine; anything else must name a supported engine.
func (s *Session) ResolveEngine(name string) (schemas.SearchEngine, error) {
	if strings.TrimSpace(name) == "" {
		return s.Engine(), nil
	}
	return search.ParseEngine(name)
}

// SearchURL builds the search URL for the current query. engine "" uses the
// active engine. An empty workspace yields "".
func (s *Session) SearchURL(engine string) (string, error) {
	e, err := s.ResolveEngine(engine)
	if err != nil {
		return "", err
	}
	return search.BuildURL(query.Adapt(s.Query(), e), e)
}

// Search builds the URL for the current query and records it in the history.
// The record is returned even when recording fails.
func (s *Session) Search(ctx context.Context, engine string) (schemas.SearchRecord, error) {
	e, err := s.ResolveEngine(engine)
	if err != nil {
		return schemas.SearchRecord{}, err
	}

	s.mu.Lock()
	blocks := s.ws.Snapshot()
	s.mu.Unlock()

	q := query.Adapt(query.Format(blocks), e)
	if q == "" {
		return schemas.SearchRecord{}, ErrEmptyQuery
	}
	u, err := search.BuildURL(q, e)
	if err != nil {
		return schemas.SearchRecord{}, err
	}

	rec := schemas.SearchRecord{
		ID:         s.newID(),
		Query:      q,
		Engine:     e,
		URL:        u,
		BlockCount: query.Filled(blocks),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.RecordSearch(ctx, rec); err != nil {
		s.logger.Warn("Failed to record search.", zap.String("id", rec.ID), zap.Error(err))
		return rec, fmt.Errorf("failed to record search: %w", err)
	}
	s.logger.Info("Search recorded.", zap.String("engine", string(e)), zap.Int("blocks", rec.BlockCount))
	return rec, nil
}

// History returns up to limit past searches, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	return s.repo.ListSearches(ctx, limit)
}
