package usecase

import (
	"context"
	"fmt"
	"sync"

	"data-anonymization-service/internal/domain"
)

// CredentialResolver はsystem_idから共有秘密鍵を解決するインターフェース。
// 署名検証ロジックを変更せずに、設定ファイル・データベース・シークレット
// ストアなど任意のバックエンドに差し替えられる。
type CredentialResolver interface {
	Resolve(ctx context.Context, systemID string) (*domain.SystemCredential, error)
}

// CredentialRepository はシステム認証情報のデータアクセスインターフェース。
type CredentialRepository interface {
	FindBySystemID(ctx context.Context, systemID string) (*domain.CredentialRecord, error)
	Create(ctx context.Context, record *domain.CredentialRecord) error
	FindAll(ctx context.Context) ([]*domain.CredentialRecord, error)
	UpdateStatus(ctx context.Context, id string, status domain.CredentialStatus) error
}

// KMSClient は暗号化/復号のインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// CredentialService はDBに保存された認証情報を解決するCredentialResolver。
// 共有秘密鍵はKMSで暗号化された状態で保存されており、解決時に復号する。
// 認証情報はプロセス生存期間中は不変として扱い、復号結果をキャッシュする。
type CredentialService struct {
	repo      CredentialRepository
	kmsClient KMSClient
	cache     sync.Map // systemID -> *domain.SystemCredential
}

// NewCredentialService は新しいCredentialServiceを生成する。
func NewCredentialService(repo CredentialRepository, kmsClient KMSClient) *CredentialService {
	return &CredentialService{
		repo:      repo,
		kmsClient: kmsClient,
	}
}

// Resolve はsystem_idに対応する共有秘密鍵を解決する。
// 未登録または無効化済みの場合はErrUnknownSystemを返す。
func (s *CredentialService) Resolve(ctx context.Context, systemID string) (*domain.SystemCredential, error) {
	if cached, ok := s.cache.Load(systemID); ok {
		return cached.(*domain.SystemCredential), nil
	}

	record, err := s.repo.FindBySystemID(ctx, systemID)
	if err != nil {
		return nil, fmt.Errorf("finding credential: %w", err)
	}
	if record == nil || record.Status != domain.CredentialStatusActive {
		return nil, domain.ErrUnknownSystem
	}

	secret, err := s.kmsClient.Decrypt(ctx, record.EncryptedSecret)
	if err != nil {
		return nil, fmt.Errorf("decrypting shared secret: %w", err)
	}

	credential := &domain.SystemCredential{
		SystemID:     record.SystemID,
		SharedSecret: string(secret),
		Description:  record.Description,
	}
	s.cache.Store(systemID, credential)
	return credential, nil
}

// Provision は共有秘密鍵をKMSで暗号化して新しい認証情報を登録する。
func (s *CredentialService) Provision(ctx context.Context, systemID, sharedSecret, description string) (*domain.CredentialRecord, error) {
	existing, err := s.repo.FindBySystemID(ctx, systemID)
	if err != nil {
		return nil, fmt.Errorf("checking existing credential: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrCredentialAlreadyExists
	}

	encrypted, err := s.kmsClient.Encrypt(ctx, []byte(sharedSecret))
	if err != nil {
		return nil, fmt.Errorf("encrypting shared secret: %w", err)
	}

	record := &domain.CredentialRecord{
		SystemID:        systemID,
		EncryptedSecret: encrypted,
		Description:     description,
		Status:          domain.CredentialStatusActive,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating credential: %w", err)
	}
	return record, nil
}

// List は登録済みの認証情報一覧を返す（秘密鍵は復号しない）。
func (s *CredentialService) List(ctx context.Context) ([]*domain.CredentialRecord, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	return records, nil
}

// Disable は指定されたsystem_idの認証情報を無効化する。
func (s *CredentialService) Disable(ctx context.Context, systemID string) error {
	record, err := s.repo.FindBySystemID(ctx, systemID)
	if err != nil {
		return fmt.Errorf("finding credential: %w", err)
	}
	if record == nil {
		return domain.ErrUnknownSystem
	}
	if record.Status == domain.CredentialStatusDisabled {
		return domain.ErrCredentialAlreadyDisabled
	}

	if err := s.repo.UpdateStatus(ctx, record.ID, domain.CredentialStatusDisabled); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}
