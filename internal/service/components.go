// File: internal/service/components.go
package service

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/dorkbuilder/internal/ghdb"
	"github.com/xkilldash9x/dorkbuilder/internal/observability"
	"github.com/xkilldash9x/dorkbuilder/internal/session"
	"github.com/xkilldash9x/dorkbuilder/internal/store"
)

// Components holds everything a command needs: the persistence backend, the
// editing session built on it and the GHDB client.
type Components struct {
	Store   store.Repository
	Session *session.Session
	GHDB    *ghdb.Client

	closed bool
}

// Shutdown releases the components. It is safe to call more than once and on
// partially initialized components.
func (c *Components) Shutdown() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	logger := observability.GetLogger()

	// The session owns the repository once it exists.
	switch {
	case c.Session != nil:
		if err := c.Session.Close(); err != nil {
			logger.Warn("Error closing session store.", zap.Error(err))
		}
	case c.Store != nil:
		if err := c.Store.Close(); err != nil {
			logger.Warn("Error closing store.", zap.Error(err))
		}
	}
	logger.Debug("Components shut down.")
}
