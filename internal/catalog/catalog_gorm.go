package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gormCatalog struct {
	db    *gorm.DB
	pager *keyset.Pager[Product]
}

func dialector(store config.Store) (gorm.Dialector, error) {
	switch store.Driver {
	case "sqlite":
		return sqlite.Open(store.DSN), nil
	case "postgres":
		return postgres.Open(store.DSN), nil
	case "mysql":
		return mysql.Open(store.DSN), nil
	default:
		return nil, fmt.Errorf("driver '%s' is not served by gorm", store.Driver)
	}
}

func openGORM(ctx context.Context, store config.Store, log logrus.FieldLogger, opts ...keyset.Option) (Catalog, error) {
	d, err := dialector(store)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", store.Driver, err)
	}

	if store.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// One connection serializes writers and keeps in-memory databases alive.
		sqlDB.SetMaxOpenConns(1)
	}

	c, err := newGORMCatalog(ctx, db, opts...)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// newGORMCatalog migrates the products table on db.
func newGORMCatalog(ctx context.Context, db *gorm.DB, opts ...keyset.Option) (*gormCatalog, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products: %w", err)
	}

	return &gormCatalog{
		db:    db,
		pager: keyset.NewPager[Product](keyset.NewGORMStore[Product](db), keyset.IntIDCodec{}, productGetters, opts...),
	}, nil
}

func (c *gormCatalog) Page(ctx context.Context, req keyset.Request) (any, error) {
	return c.pager.Paginate(ctx, req)
}

func (c *gormCatalog) Seed(ctx context.Context, products []Product) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Product{}).Error; err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}

		if len(products) == 0 {
			return nil
		}

		if err := tx.CreateInBatches(products, 50).Error; err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}

		return nil
	})
}

func (c *gormCatalog) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (c *gormCatalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
