package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mundamarket/stock-engine/internal/domain"
	"github.com/mundamarket/stock-engine/internal/repository"
)

func TestCreatePreferenceValidatesThreshold(t *testing.T) {
	svc := NewPreferenceService(&MockPreferenceRepository{}, &MockCatalogRepository{})

	err := svc.Create(context.Background(), &domain.InventoryPreference{
		BuyerID: 1,
		CropID:  2,
	})
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestCreatePreferenceUnknownCrop(t *testing.T) {
	prefs := &MockPreferenceRepository{}
	catalog := &MockCatalogRepository{}
	svc := NewPreferenceService(prefs, catalog)

	catalog.On("GetCrop", mock.Anything, int64(99)).Return(nil, repository.ErrNotFound)

	err := svc.Create(context.Background(), &domain.InventoryPreference{
		BuyerID:             1,
		CropID:              99,
		MinStockThresholdKg: 50,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	prefs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePreferenceAppliesDefaults(t *testing.T) {
	prefs := &MockPreferenceRepository{}
	catalog := &MockCatalogRepository{}
	svc := NewPreferenceService(prefs, catalog)

	catalog.On("GetCrop", mock.Anything, int64(2)).Return(&domain.CropInfo{ID: 2, Name: "Maize"}, nil)
	prefs.On("Create", mock.Anything, mock.Anything).Return(nil)

	pref := &domain.InventoryPreference{
		BuyerID:             1,
		CropID:              2,
		MinStockThresholdKg: 50,
	}
	err := svc.Create(context.Background(), pref)

	assert.NoError(t, err)
	assert.Equal(t, 7, pref.DaysBeforeHarvestAlert)
	assert.Equal(t, 30, pref.DaysAfterHarvestAlert)
	assert.Equal(t, "daily", pref.AlertFrequency)
}
