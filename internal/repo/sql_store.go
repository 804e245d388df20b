package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-roast-backend/internal/domain"
)

// SQLStore is the GORM-backed Store.
type SQLStore struct {
	DB *gorm.DB
}

// OpenSQLStore opens the SQLite database at path and migrates its schema.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an already opened and migrated database.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{DB: db} }

// InsertRoast implements Store.
func (s *SQLStore) InsertRoast(ctx context.Context, rec *domain.RoastRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	return s.DB.WithContext(ctx).Create(rec).Error
}

// InsertPayment implements Store.
func (s *SQLStore) InsertPayment(ctx context.Context, rec *domain.PaymentRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		if rec.IdempotencyKey != "" && isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// FindPaymentByIdempotencyKey implements Store.
func (s *SQLStore) FindPaymentByIdempotencyKey(ctx context.Context, key string, since time.Time) (*domain.PaymentRecord, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	var rec domain.PaymentRecord
	err := s.DB.WithContext(ctx).
		Where("idempotency_key = ? AND created_at > ?", key, since).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertEvent implements Store.
func (s *SQLStore) InsertEvent(ctx context.Context, rec *domain.EventRecord) error {
	stamp(&rec.ID, &rec.CreatedAt)
	return s.DB.WithContext(ctx).Create(rec).Error
}

// Stats implements Store.
func (s *SQLStore) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&domain.RoastRecord{}).Count(&st.Roasts).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&domain.PaymentRecord{}).
		Where("status = ?", domain.PaymentStatusCreated).
		Count(&st.Payments).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := db.Model(&domain.EventRecord{}).
		Where("event_type = ?", domain.EventShareTwitter).
		Count(&st.Shares).Error; err != nil {
		return domain.Stats{}, err
	}
	return st, nil
}

// Ping implements Store.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store.
func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
