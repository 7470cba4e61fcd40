package keyset

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testProduct struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Category string `gorm:"index"`
	Price    float64
}

func (testProduct) TableName() string {
	return "products"
}

var _testGetters = Getters[testProduct]{
	"id":    func(p testProduct) any { return p.ID },
	"name":  func(p testProduct) any { return p.Name },
	"price": func(p testProduct) any { return p.Price },
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newSQLiteDB opens a private in-memory database with the products table.
// A single connection keeps the in-memory database alive and shared.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&testProduct{}))

	return db
}

// seedProducts inserts n products with ids 1..n built by fn.
func seedProducts(t *testing.T, db *gorm.DB, n int, fn func(i int) testProduct) []testProduct {
	t.Helper()

	products := make([]testProduct, 0, n)
	for i := 1; i <= n; i++ {
		p := fn(i)
		p.ID = uint(i)
		if p.Name == "" {
			p.Name = fmt.Sprintf("Product %d", i)
		}
		products = append(products, p)
	}

	require.NoError(t, db.CreateInBatches(products, 50).Error)

	return products
}
