// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Store() config.StoreConfig {
	args := m.Called()
	return args.Get(0).(config.StoreConfig)
}

func (m *MockConfig) Search() config.SearchConfig {
	args := m.Called()
	return args.Get(0).(config.SearchConfig)
}

func (m *MockConfig) Catalog() config.CatalogConfig {
	args := m.Called()
	return args.Get(0).(config.CatalogConfig)
}

func (m *MockConfig) GHDB() config.GHDBConfig {
	args := m.Called()
	return args.Get(0).(config.GHDBConfig)
}

// --- Setters ---

func (m *MockConfig) SetStoreBackend(backend string) {
	m.Called(backend)
}

func (m *MockConfig) SetDefaultEngine(engine string) {
	m.Called(engine)
}

// -- Repository Mock --

// MockRepository mocks store.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) LoadCatalog(ctx context.Context) (schemas.CatalogState, error) {
	args := m.Called(ctx)
	return args.Get(0).(schemas.CatalogState), args.Error(1)
}

func (m *MockRepository) SaveCatalog(ctx context.Context, state schemas.CatalogState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockRepository) RecordSearch(ctx context.Context, rec schemas.SearchRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// ListSearches returns nil records when the first return value is nil.
func (m *MockRepository) ListSearches(ctx context.Context, limit int) ([]schemas.SearchRecord, error) {
	args := m.Called(ctx, limit)
	var records []schemas.SearchRecord
	if r := args.Get(0); r != nil {
		records = r.([]schemas.SearchRecord)
	}
	return records, args.Error(1)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// -- HTTP Mock --

// MockHTTPDoer mocks the HTTP client used by the GHDB client.
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	var resp *http.Response
	if r := args.Get(0); r != nil {
		resp = r.(*http.Response)
	}
	return resp, args.Error(1)
}
