// internal/mocks/mocks_test.go
package mocks_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
	"github.com/xkilldash9x/dorkbuilder/internal/config"
	"github.com/xkilldash9x/dorkbuilder/internal/ghdb"
	"github.com/xkilldash9x/dorkbuilder/internal/mocks"
	"github.com/xkilldash9x/dorkbuilder/internal/store"
)

// The mocks must keep satisfying the interfaces they stand in for.
var (
	_ config.Interface = (*mocks.MockConfig)(nil)
	_ store.Repository = (*mocks.MockRepository)(nil)
	_ ghdb.HTTPDoer    = (*mocks.MockHTTPDoer)(nil)
)

func TestMockRepository_NilReturns(t *testing.T) {
	repo := new(mocks.MockRepository)
	repo.On("ListSearches", mock.Anything, 5).Return(nil, errors.New("boom"))

	records, err := repo.ListSearches(context.Background(), 5)
	assert.Nil(t, records)
	assert.EqualError(t, err, "boom")
	repo.AssertExpectations(t)
}

func TestMockRepository_Values(t *testing.T) {
	repo := new(mocks.MockRepository)
	state := schemas.CatalogState{NextCustomID: 2}
	repo.On("LoadCatalog", mock.Anything).Return(state, nil)

	got, err := repo.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestMockHTTPDoer_NilResponse(t *testing.T) {
	doer := new(mocks.MockHTTPDoer)
	doer.On("Do", mock.AnythingOfType("*http.Request")).Return(nil, errors.New("dial failed"))

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)
	resp, err := doer.Do(req)
	assert.Nil(t, resp)
	assert.Error(t, err)
}
