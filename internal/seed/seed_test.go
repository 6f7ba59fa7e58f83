package seed

import (
	"context"
	"testing"

	"realtycore/internal/models"
	"realtycore/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.Migrate(db))
	return storage.New(db, nil, nil)
}

func TestAdmin_Idempotent(t *testing.T) {
	st := newStore(t)
	lg := zap.NewNop().Sugar()
	ctx := context.Background()

	first, err := Admin(ctx, st, lg, "admin@realtycore.local", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second, err := Admin(ctx, st, lg, "admin@realtycore.local", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestDemoData(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	demo, err := DemoData(ctx, st, zap.NewNop().Sugar(), "demo-password")
	require.NoError(t, err)
	assert.Len(t, demo.Properties, 3)
	assert.Len(t, demo.Leads, 4)

	page, err := st.GetAffiliateMarketplace(ctx, storage.MarketplaceQuery{UserID: demo.Affiliate.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	buckets, err := st.GetCrmStages(ctx, demo.Owner.ID)
	require.NoError(t, err)
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, 4, total)

	incoming, err := st.ListAffiliationsForOwner(ctx, demo.Owner.ID, models.StatusPending)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
}
