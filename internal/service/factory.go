// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/internal/catalog"
	"github.com/xkilldash9x/dorkbuilder/internal/config"
	"github.com/xkilldash9x/dorkbuilder/internal/ghdb"
	"github.com/xkilldash9x/dorkbuilder/internal/network"
	"github.com/xkilldash9x/dorkbuilder/internal/search"
	"github.com/xkilldash9x/dorkbuilder/internal/session"
	"github.com/xkilldash9x/dorkbuilder/internal/store"
)

// ComponentFactory creates the components for one command invocation. Commands
// depend on this interface so tests can hand them an in-memory setup.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create opens the configured store, restores the session from it and builds
// the GHDB client.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	components := &Components{}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Default engine
	defaultEngine, err := search.ParseEngine(cfg.Search().DefaultEngine)
	if err != nil {
		initializationErr = fmt.Errorf("invalid search.default_engine: %w", err)
		return nil, initializationErr
	}

	// 2. Store
	repo, err := store.New(ctx, cfg.Store(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize store: %w", err)
		return nil, initializationErr
	}
	components.Store = repo
	logger.Debug("Store initialized.", zap.String("backend", cfg.Store().Backend))

	// 3. Session
	sess, err := session.Open(ctx, repo,
		session.WithLogger(logger),
		session.WithDefaultEngine(defaultEngine),
		session.WithCatalogOptions(catalog.WithReservedPredefined(cfg.Catalog().ReservePredefined)),
	)
	if err != nil {
		initializationErr = fmt.Errorf("failed to open session: %w", err)
		return nil, initializationErr
	}
	components.Session = sess
	logger.Debug("Session opened.")

	// 4. GHDB client
	httpCfg, err := network.ClientConfigFromGHDB(cfg.GHDB(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to configure http client: %w", err)
		return nil, initializationErr
	}
	client, err := ghdb.NewClient(cfg.GHDB(), network.NewClient(httpCfg), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize ghdb client: %w", err)
		return nil, initializationErr
	}
	components.GHDB = client

	return components, nil
}
