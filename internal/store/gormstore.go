package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courspresso/courspresso-web/internal/config"
	"github.com/courspresso/courspresso-web/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type GormStore struct {
	DB  *gorm.DB
	ttl time.Duration
}

func NewGormStore(cfg *config.Config) (*GormStore, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, err
	}
	// AutoMigrate (non-destructive: creates tables/columns/indexes)
	if err := db.AutoMigrate(&models.BrowserRecord{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &GormStore{DB: db, ttl: cfg.SessionTTL}, nil
}

func (s *GormStore) GetItems(ctx context.Context, browserID string, keys ...string) (map[string]string, error) {
	if browserID == "" {
		return nil, ErrEmptyBrowserID
	}
	out := map[string]string{}
	var rec models.BrowserRecord
	err := s.DB.WithContext(ctx).First(&rec, "browser_id = ?", browserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	// reads keep the row alive for PurgeStale
	if err := s.DB.WithContext(ctx).Model(&models.BrowserRecord{}).Where("browser_id = ?", browserID).
		UpdateColumn("updated_at", time.Now()).Error; err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		for k, v := range rec.Items {
			out[k] = stringify(v)
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := rec.Items[k]; ok {
			out[k] = stringify(v)
		}
	}
	return out, nil
}

// SetItems merges items into the browser's row under a row lock.
func (s *GormStore) SetItems(ctx context.Context, browserID string, items map[string]string) error {
	if browserID == "" {
		return ErrEmptyBrowserID
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.mutate(tx, browserID, func(m datatypes.JSONMap) {
			for k, v := range items {
				m[k] = v
			}
		})
	})
}

func (s *GormStore) RemoveItems(ctx context.Context, browserID string, keys ...string) error {
	if browserID == "" || len(keys) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.mutate(tx, browserID, func(m datatypes.JSONMap) {
			for _, k := range keys {
				delete(m, k)
			}
		})
	})
}

func (s *GormStore) mutate(tx *gorm.DB, browserID string, fn func(datatypes.JSONMap)) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BrowserRecord{BrowserID: browserID, Items: datatypes.JSONMap{}}).Error; err != nil {
		return err
	}
	var rec models.BrowserRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "browser_id = ?", browserID).Error; err != nil {
		return err
	}
	if rec.Items == nil {
		rec.Items = datatypes.JSONMap{}
	}
	fn(rec.Items)
	return tx.Model(&models.BrowserRecord{}).Where("browser_id = ?", browserID).
		Updates(map[string]interface{}{"items": rec.Items, "updated_at": time.Now()}).Error
}

func (s *GormStore) Clear(ctx context.Context, browserID string) error {
	if browserID == "" {
		return nil
	}
	return s.DB.WithContext(ctx).Where("browser_id = ?", browserID).Delete(&models.BrowserRecord{}).Error
}

// PurgeStale deletes rows idle for longer than the session TTL.
func (s *GormStore) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Where("updated_at < ?", now.Add(-s.ttl)).Delete(&models.BrowserRecord{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
