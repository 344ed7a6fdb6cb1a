package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keychainmdip/dex-market/internal/domain"
)

const (
	kindUser     = "user"
	kindSettings = "settings"

	settingsKey = "settings"
)

// document is a single whole-document row. The ledger deliberately stores
// opaque JSON payloads keyed by DID rather than normalized tables: the store
// contract is load/replace of full documents only.
type document struct {
	Key       string         `gorm:"primaryKey;size:512"`
	Kind      string         `gorm:"size:32;index"`
	Doc       datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the table name
func (document) TableName() string {
	return "documents"
}

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a PostgreSQL-backed store
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates the documents table if needed
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&document{})
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults: 20 open, 5 idle,
// 5m lifetime, 10m idle time.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

func userKey(did domain.DID) string {
	return "user:" + did.String()
}

func upsert(tx *gorm.DB, key, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", kind, err)
	}
	row := document{Key: key, Kind: kind, Doc: raw}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "doc", "updated_at"}),
	}).Create(&row).Error
}

func (s *pgStore) load(ctx context.Context, key string, out any) error {
	var row document
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", key, err)
	}
	if err := json.Unmarshal(row.Doc, out); err != nil {
		return fmt.Errorf("failed to unmarshal document %s: %w", key, err)
	}
	return nil
}

func (s *pgStore) GetUser(ctx context.Context, did domain.DID) (*domain.User, error) {
	var user domain.User
	if err := s.load(ctx, userKey(did), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *pgStore) PutUser(ctx context.Context, user *domain.User) error {
	return upsert(s.db.WithContext(ctx), userKey(user.DID), kindUser, user)
}

// PutUsers replaces several user documents in one database transaction
func (s *pgStore) PutUsers(ctx context.Context, users []*domain.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, user := range users {
			if err := upsert(tx, userKey(user.DID), kindUser, user); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *pgStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []document
	err := s.db.WithContext(ctx).
		Where("kind = ?", kindUser).
		Order("key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		var user domain.User
		if err := json.Unmarshal(row.Doc, &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document %s: %w", row.Key, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *pgStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	if err := s.load(ctx, settingsKey, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *pgStore) PutSettings(ctx context.Context, settings *domain.Settings) error {
	return upsert(s.db.WithContext(ctx), settingsKey, kindSettings, settings)
}
