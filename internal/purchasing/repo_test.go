package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	"github.com/adriansoto/stockpilot-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPurchasingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  supplier_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  expected_delivery DATETIME,
  received_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS purchase_order_line_items (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_cost_cents INTEGER NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS purchase_order_timeline_entries (
  id TEXT PRIMARY KEY,
  purchase_order_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  status TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedPO(t *testing.T, repo Repository) *models.PurchaseOrder {
	t.Helper()

	po := &models.PurchaseOrder{
		ID:         uuid.New(),
		SupplierID: uuid.New(),
		Status:     enums.PurchaseOrderStatusCreated,
		LineItems: []models.PurchaseOrderLineItem{{
			ID:            uuid.New(),
			ProductID:     uuid.New(),
			Qty:           5,
			UnitCostCents: 250,
		}},
		Timeline: []models.PurchaseOrderTimelineEntry{{
			ID:          uuid.New(),
			Position:    0,
			Status:      enums.PurchaseOrderStatusCreated,
			Description: "purchase order created",
		}},
	}
	require.NoError(t, repo.Create(context.Background(), po))
	return po
}

func TestRepositoryPurchaseOrderFlow(t *testing.T) {
	db := setupPurchasingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	po := seedPO(t, repo)

	loaded, err := repo.Find(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, po.ID, loaded.ID)
	require.Len(t, loaded.LineItems, 1)
	assert.Equal(t, 5, loaded.LineItems[0].Qty)
	require.Len(t, loaded.Timeline, 1)

	require.NoError(t, repo.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusCreated, enums.PurchaseOrderStatusSent, nil))
	require.NoError(t, repo.AppendTimeline(ctx, &models.PurchaseOrderTimelineEntry{
		ID:              uuid.New(),
		PurchaseOrderID: po.ID,
		Position:        1,
		Status:          enums.PurchaseOrderStatusSent,
		Description:     "status changed to sent",
	}))

	loaded, err = repo.Find(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusSent, loaded.Status)
	require.Len(t, loaded.Timeline, 2)
	assert.Equal(t, 0, loaded.Timeline[0].Position)
	assert.Equal(t, 1, loaded.Timeline[1].Position)
}

func TestRepositoryUpdateStatusSetsReceivedDate(t *testing.T) {
	db := setupPurchasingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	po := seedPO(t, repo)
	received := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusCreated, enums.PurchaseOrderStatusReceived, &received))

	loaded, err := repo.Find(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusReceived, loaded.Status)
	require.NotNil(t, loaded.ReceivedDate)
	assert.WithinDuration(t, received, *loaded.ReceivedDate, time.Second)
}

func TestRepositoryUpdateStatusGuardsCurrentStatus(t *testing.T) {
	db := setupPurchasingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	po := seedPO(t, repo)
	err := repo.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusShipped, enums.PurchaseOrderStatusReceived, nil)
	assert.ErrorIs(t, err, ErrStaleStatus)

	loaded, err := repo.Find(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusCreated, loaded.Status)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupPurchasingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedPO(t, repo)
	second := seedPO(t, repo)
	require.NoError(t, repo.UpdateStatus(ctx, second.ID, enums.PurchaseOrderStatusCreated, enums.PurchaseOrderStatusCancelled, nil))

	created := enums.PurchaseOrderStatusCreated
	list, err := repo.List(ctx, &created, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	all, err := repo.List(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryFindMissing(t *testing.T) {
	db := setupPurchasingTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
