// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"data-anonymization-service/internal/domain"
)

// SystemCredentialModel はgorm用のモデル定義。
type SystemCredentialModel struct {
	ID              string    `gorm:"type:char(36);primaryKey"`
	SystemID        string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_system_id"`
	EncryptedSecret []byte    `gorm:"type:blob;not null"`
	Description     string    `gorm:"type:varchar(255);not null;default:''"`
	Status          string    `gorm:"type:enum('active','disabled');not null;default:'active';index:idx_status"`
	CreatedAt       time.Time `gorm:"type:datetime(6);not null;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (SystemCredentialModel) TableName() string {
	return "system_credentials"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *SystemCredentialModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *SystemCredentialModel) toDomain() *domain.CredentialRecord {
	return &domain.CredentialRecord{
		ID:              m.ID,
		SystemID:        m.SystemID,
		EncryptedSecret: m.EncryptedSecret,
		Description:     m.Description,
		Status:          domain.CredentialStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// CredentialRepository はシステム認証情報のデータアクセスを提供する。
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository は新しいCredentialRepositoryを生成する。
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindBySystemID は指定されたsystem_idの認証情報を取得する。
// 存在しない場合は(nil, nil)を返す。
func (r *CredentialRepository) FindBySystemID(ctx context.Context, systemID string) (*domain.CredentialRecord, error) {
	var model SystemCredentialModel
	err := r.db.WithContext(ctx).
		Where("system_id = ?", systemID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find credential",
			"operation", "find_by_system_id",
			"system_id", systemID,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// Create は新しい認証情報を保存する。
func (r *CredentialRepository) Create(ctx context.Context, record *domain.CredentialRecord) error {
	model := &SystemCredentialModel{
		ID:              record.ID,
		SystemID:        record.SystemID,
		EncryptedSecret: record.EncryptedSecret,
		Description:     record.Description,
		Status:          string(record.Status),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create credential",
			"operation", "create",
			"system_id", record.SystemID,
			"error", err,
		)
		return err
	}
	// gormで設定された値をドメインエンティティに反映
	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// FindAll は全認証情報をsystem_id順に取得する。
func (r *CredentialRepository) FindAll(ctx context.Context) ([]*domain.CredentialRecord, error) {
	var models []SystemCredentialModel
	err := r.db.WithContext(ctx).
		Order("system_id ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find all credentials",
			"operation", "find_all",
			"error", err,
		)
		return nil, err
	}

	records := make([]*domain.CredentialRecord, len(models))
	for i, m := range models {
		records[i] = m.toDomain()
	}
	return records, nil
}

// UpdateStatus は指定されたIDの認証情報のステータスを更新する。
func (r *CredentialRepository) UpdateStatus(ctx context.Context, id string, status domain.CredentialStatus) error {
	err := r.db.WithContext(ctx).
		Model(&SystemCredentialModel{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update status",
			"operation", "update_status",
			"id", id,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}
