package services

import (
	"context"
	"testing"

	"restaurant-api/models"

	"github.com/stretchr/testify/require"
)

func TestRestockIsAdditive(t *testing.T) {
	ctx := context.Background()

	twice, db1 := newTestServices(t, nil, DefaultOptions())
	a := seedInventory(t, db1, "Flour", 10, 5)
	_, err := twice.Inventory.Restock(ctx, cook, a.ID, 7)
	require.NoError(t, err)
	_, err = twice.Inventory.Restock(ctx, cook, a.ID, 7)
	require.NoError(t, err)

	once, db2 := newTestServices(t, nil, DefaultOptions())
	b := seedInventory(t, db2, "Flour", 10, 5)
	got, err := once.Inventory.Restock(ctx, cook, b.ID, 14)
	require.NoError(t, err)

	require.Equal(t, 24, got.Quantity)
	require.Equal(t, quantityOf(t, db2, b.ID), quantityOf(t, db1, a.ID))
}

func TestRestockRejectsBadInput(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	it := seedInventory(t, db, "Flour", 10, 5)
	ctx := context.Background()

	_, err := svc.Inventory.Restock(ctx, cook, it.ID, 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Inventory.Restock(ctx, cook, 404, 3)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Inventory.Restock(ctx, cashier, it.ID, 3)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 10, quantityOf(t, db, it.ID))
}

func TestSetQuantityOverwrites(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	it := seedInventory(t, db, "Eggs", 30, 12)
	ctx := context.Background()

	got, err := svc.Inventory.SetQuantity(ctx, manager, it.ID, 4)
	require.NoError(t, err)
	require.Equal(t, 4, got.Quantity)
	require.True(t, got.LowStock())

	_, err = svc.Inventory.SetQuantity(ctx, manager, it.ID, -1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateAndLowStock(t *testing.T) {
	svc, _ := newTestServices(t, nil, DefaultOptions())
	ctx := context.Background()

	_, err := svc.Inventory.Create(ctx, cook, CreateInventoryInput{Name: "  ", Unit: "kg"})
	require.ErrorIs(t, err, ErrValidation)

	for _, in := range []CreateInventoryInput{
		{Name: "Rice", Quantity: 3, Unit: "kg", Threshold: 5},
		{Name: "Oil", Quantity: 20, Unit: "L", Threshold: 5},
		{Name: "Salt", Quantity: 0, Unit: "kg", Threshold: 1},
	} {
		_, err := svc.Inventory.Create(ctx, cook, in)
		require.NoError(t, err)
	}

	low, err := svc.Inventory.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	require.Equal(t, "Salt", low[0].Name)
	require.Equal(t, "Rice", low[1].Name)
}

func TestDeleteInventoryInUseIsRejected(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	cat := seedCategory(t, db, "Mains", "mains")
	dish := seedMenuItem(t, db, cat.ID, "Stew", 9)
	used := seedInventory(t, db, "Beef", 10, 2)
	spare := seedInventory(t, db, "Parsley", 10, 2)
	seedRecipe(t, db, dish.ID, map[uint]float64{used.ID: 1})
	ctx := context.Background()

	require.ErrorIs(t, svc.Inventory.Delete(ctx, cook, spare.ID), ErrUnauthorized)
	require.ErrorIs(t, svc.Inventory.Delete(ctx, manager, used.ID), ErrConflict)
	require.NoError(t, svc.Inventory.Delete(ctx, manager, spare.ID))
	require.ErrorIs(t, svc.Inventory.Delete(ctx, manager, spare.ID), ErrNotFound)

	var left int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Count(&left).Error)
	require.EqualValues(t, 1, left)
}
