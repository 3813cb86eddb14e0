package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cardbet/config"
	"cardbet/models"
)

func TestCatalogService_NotReadyBeforeFirstRefresh(t *testing.T) {
	config.Set(config.NewTestConfig())
	catalog := NewCatalogService(new(MockCardRegistry))

	assert.False(t, catalog.Ready())
	assert.Nil(t, catalog.Current())
}

func TestCatalogService_RefreshSwapsWholesale(t *testing.T) {
	config.Set(config.NewTestConfig())

	registry := new(MockCardRegistry)
	registry.On("FetchTemplates", mock.Anything).Return([]models.Template{
		{ID: 1, Name: "Dragon", Rarity: "rare"},
		{ID: 2, Name: "Promo", Excluded: true},
	}, nil).Once()

	catalog := NewCatalogService(registry)
	require.NoError(t, catalog.Refresh(context.Background()))

	assert.True(t, catalog.Ready())
	current := catalog.Current()
	require.NotNil(t, current)
	assert.Len(t, current.Templates, 2)

	playable := current.Playable()
	require.Len(t, playable, 1)
	assert.Equal(t, "Dragon", playable[0].Name)

	registry.AssertExpectations(t)
}

func TestCatalogService_FailedRefreshKeepsLastCatalog(t *testing.T) {
	config.Set(config.NewTestConfig())

	registry := new(MockCardRegistry)
	registry.On("FetchTemplates", mock.Anything).
		Return([]models.Template{{ID: 1, Name: "Dragon"}}, nil).Once()
	registry.On("FetchTemplates", mock.Anything).
		Return(nil, errors.New("registry down")).Once()

	catalog := NewCatalogService(registry)
	ctx := context.Background()
	require.NoError(t, catalog.Refresh(ctx))

	err := catalog.Refresh(ctx)
	require.Error(t, err)

	// The previous catalog stays in place.
	assert.True(t, catalog.Ready())
	assert.Len(t, catalog.Current().Templates, 1)
}
