package competitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
)

// PriceRecord is the competitor_prices table row.
type PriceRecord struct {
	ProductID      string    `gorm:"column:product_id;primaryKey;size:64"`
	Price          float64   `gorm:"column:price;not null"`
	CompetitorName string    `gorm:"column:competitor_name;size:128"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (PriceRecord) TableName() string {
	return "competitor_prices"
}

// Store reads and writes competitor prices in a SQL database.
type Store struct {
	db *gorm.DB
}

// OpenMySQL connects to MySQL and migrates the competitor_prices table.
func OpenMySQL(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to competitor database: %w", err)
	}
	return NewStore(db)
}

// NewStore wraps an open connection and migrates the schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PriceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate competitor_prices: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Lookup(ctx context.Context, productID string) (*float64, error) {
	var rec PriceRecord
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("competitor price query failed: %w", err)
	}
	return &rec.Price, nil
}

func (s *Store) List(ctx context.Context) ([]models.CompetitorPrice, error) {
	var recs []PriceRecord
	if err := s.db.WithContext(ctx).Order("product_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("competitor price list failed: %w", err)
	}

	rows := make([]models.CompetitorPrice, len(recs))
	for i, rec := range recs {
		rows[i] = models.CompetitorPrice{
			ProductID:      rec.ProductID,
			Price:          rec.Price,
			CompetitorName: rec.CompetitorName,
		}
	}
	return rows, nil
}

func (s *Store) ProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&PriceRecord{}).Pluck("product_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("competitor id scan failed: %w", err)
	}
	return ids, nil
}

// Upsert inserts rows, replacing the price and name of existing products.
func (s *Store) Upsert(ctx context.Context, rows []models.CompetitorPrice) error {
	if len(rows) == 0 {
		return nil
	}

	now := time.Now().UTC()
	recs := make([]PriceRecord, len(rows))
	for i, row := range rows {
		recs[i] = PriceRecord{
			ProductID:      row.ProductID,
			Price:          row.Price,
			CompetitorName: row.CompetitorName,
			UpdatedAt:      now,
		}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "competitor_name", "updated_at"}),
	}).Create(&recs).Error
	if err != nil {
		return fmt.Errorf("competitor price upsert failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
