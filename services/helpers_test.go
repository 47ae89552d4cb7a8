package services

import (
	"io"
	"testing"
	"time"

	"restaurant-api/events"
	"restaurant-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	admin   = Actor{UserID: 1, Role: models.RoleAdmin}
	manager = Actor{UserID: 2, Role: models.RoleManager}
	cashier = Actor{UserID: 3, Role: models.RoleCashier}
	cook    = Actor{UserID: 4, Role: models.RoleKitchenStaff}
)

// openTestDB returns a private in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func quietLogger() *log.Logger {
	lg := log.New()
	lg.SetOutput(io.Discard)
	return lg
}

func newTestServices(t *testing.T, pub events.Publisher, opts Options) (*Services, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	seedStaff(t, db)
	return New(db, pub, quietLogger(), opts), db
}

// seedStaff creates users 1..4 matching the package-level actors.
func seedStaff(t *testing.T, db *gorm.DB) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	staff := []models.User{
		{ID: 1, Name: "Ada Admin", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
		{ID: 2, Name: "Max Manager", Username: "manager", Email: "manager@example.com", Role: models.RoleManager},
		{ID: 3, Name: "Cal Cashier", Username: "cashier", Email: "cashier@example.com", Role: models.RoleCashier},
		{ID: 4, Name: "Kit Cook", Username: "cook", Email: "cook@example.com", Role: models.RoleKitchenStaff},
	}
	for i := range staff {
		staff[i].PasswordHash = string(hash)
	}
	require.NoError(t, db.Create(&staff).Error)
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slug}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedMenuItem(t *testing.T, db *gorm.DB, categoryID uint, name string, price float64) models.MenuItem {
	t.Helper()
	it := models.MenuItem{Name: name, Price: price, CategoryID: categoryID, Available: true}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func seedInventory(t *testing.T, db *gorm.DB, name string, qty, threshold int) models.InventoryItem {
	t.Helper()
	it := models.InventoryItem{Name: name, Quantity: qty, Unit: "pcs", Threshold: threshold}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func seedRecipe(t *testing.T, db *gorm.DB, menuItemID uint, ingredients map[uint]float64) models.Recipe {
	t.Helper()
	r := models.Recipe{MenuItemID: menuItemID}
	for invID, qty := range ingredients {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{InventoryItemID: invID, Quantity: qty})
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func seedTable(t *testing.T, db *gorm.DB, number string, capacity int) models.RestaurantTable {
	t.Helper()
	tb := models.RestaurantTable{Number: number, Capacity: capacity, Status: models.TableAvailable}
	require.NoError(t, db.Create(&tb).Error)
	return tb
}

func quantityOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var it models.InventoryItem
	require.NoError(t, db.First(&it, id).Error)
	return it.Quantity
}

func tableStatus(t *testing.T, db *gorm.DB, id uint) models.TableStatus {
	t.Helper()
	var tb models.RestaurantTable
	require.NoError(t, db.First(&tb, id).Error)
	return tb.Status
}

func uintPtr(v uint) *uint { return &v }
