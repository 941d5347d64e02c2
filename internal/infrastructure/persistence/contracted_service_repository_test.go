package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// contractedServiceRowSQLite is a SQLite-compatible version of the
// contracted_services table for testing
type contractedServiceRowSQLite struct {
	ID              string `gorm:"primaryKey"`
	CustomerID      string `gorm:"index;not null"`
	ServiceName     string `gorm:"not null"`
	ContractedPrice string `gorm:"not null"`
	TaxRateCategory string `gorm:"not null"`
	Active          bool   `gorm:"not null;default:true"`
	ContractedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (contractedServiceRowSQLite) TableName() string {
	return "contracted_services"
}

func setupContractedServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&contractedServiceRowSQLite{}))
	return db
}

func mustService(t *testing.T, customerID uuid.UUID, name string, price string) *partner.ContractedService {
	t.Helper()
	svc, err := partner.NewContractedService(
		customerID, name, decimal.RequireFromString(price), billing.TaxRateGeneral)
	require.NoError(t, err)
	return svc
}

func TestGormContractedServiceRepository_SaveAndFind(t *testing.T) {
	db := setupContractedServiceTestDB(t)
	repo := NewGormContractedServiceRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	svc := mustService(t, customerID, "Internet 100MB", "15000")
	require.NoError(t, repo.Save(ctx, svc))

	found, err := repo.FindByID(ctx, svc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Internet 100MB", found.ServiceName)
	assert.True(t, found.ContractedPrice.Equal(decimal.RequireFromString("15000")))
	assert.Equal(t, billing.TaxRateGeneral, found.TaxRateCategory)
	assert.True(t, found.Active)
}

func TestGormContractedServiceRepository_FindByID_NotFound(t *testing.T) {
	db := setupContractedServiceTestDB(t)
	repo := NewGormContractedServiceRepository(db)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestGormContractedServiceRepository_FindByCustomer(t *testing.T) {
	db := setupContractedServiceTestDB(t)
	repo := NewGormContractedServiceRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	otherID := uuid.New()

	phone := mustService(t, customerID, "Telefonia", "3000")
	internet := mustService(t, customerID, "Internet 100MB", "15000")
	internet.Deactivate()
	other := mustService(t, otherID, "Internet 50MB", "9000")

	for _, s := range []*partner.ContractedService{phone, internet, other} {
		require.NoError(t, repo.Save(ctx, s))
	}

	t.Run("returns all subscriptions sorted by name", func(t *testing.T) {
		services, err := repo.FindByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.Equal(t, "Internet 100MB", services[0].ServiceName)
		assert.Equal(t, "Telefonia", services[1].ServiceName)
	})

	t.Run("active filter excludes deactivated", func(t *testing.T) {
		services, err := repo.FindActiveByCustomer(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "Telefonia", services[0].ServiceName)
	})

	t.Run("unknown customer yields empty slice", func(t *testing.T) {
		services, err := repo.FindByCustomer(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, services)
	})
}

func TestGormContractedServiceRepository_Delete(t *testing.T) {
	db := setupContractedServiceTestDB(t)
	repo := NewGormContractedServiceRepository(db)
	ctx := context.Background()

	svc := mustService(t, uuid.New(), "Internet 100MB", "15000")
	require.NoError(t, repo.Save(ctx, svc))

	require.NoError(t, repo.Delete(ctx, svc.ID))

	found, err := repo.FindByID(ctx, svc.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	err = repo.Delete(ctx, svc.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
