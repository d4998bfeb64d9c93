package csvdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, r *UploadRecord) error
	GetByRequestID(ctx context.Context, requestID string) (*UploadRecord, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Migrate creates or updates the csv_data table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UploadRecord{})
}

func (r *repository) Create(ctx context.Context, rec *UploadRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return describeDBError("insert csv record", err)
	}
	return nil
}

// GetByRequestID returns the oldest record stored under requestID.
func (r *repository) GetByRequestID(ctx context.Context, requestID string) (*UploadRecord, error) {
	var rec UploadRecord
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, describeDBError("find csv record", err)
	}
	return &rec, nil
}

func describeDBError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (sqlstate %s): %w", op, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
