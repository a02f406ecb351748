package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"data-anonymization-service/internal/domain"
)

// systemsFile はsystemsファイルのJSON形式。
type systemsFile struct {
	Systems []systemEntry `json:"systems"`
}

type systemEntry struct {
	SystemID     string `json:"system_id"`
	SharedSecret string `json:"shared_secret"`
	Description  string `json:"description"`
}

// StaticCredentialResolver は設定ファイルから読み込んだ固定の認証情報を
// 解決するCredentialResolver。読み込み後は不変であり、並行読み取りに安全。
type StaticCredentialResolver struct {
	credentials map[string]*domain.SystemCredential
}

// NewStaticCredentialResolver はJSONファイルから認証情報を読み込む。
func NewStaticCredentialResolver(path string) (*StaticCredentialResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading systems file: %w", err)
	}

	var file systemsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing systems file: %w", err)
	}
	if len(file.Systems) == 0 {
		return nil, fmt.Errorf("systems file %s contains no systems", path)
	}

	credentials := make(map[string]*domain.SystemCredential, len(file.Systems))
	for _, entry := range file.Systems {
		if entry.SystemID == "" {
			return nil, fmt.Errorf("%w: empty system_id in systems file", domain.ErrInvalidSystemID)
		}
		if entry.SharedSecret == "" {
			return nil, fmt.Errorf("system %q has empty shared_secret", entry.SystemID)
		}
		if _, dup := credentials[entry.SystemID]; dup {
			return nil, fmt.Errorf("%w: duplicate system_id %q", domain.ErrInvalidSystemID, entry.SystemID)
		}
		credentials[entry.SystemID] = &domain.SystemCredential{
			SystemID:     entry.SystemID,
			SharedSecret: entry.SharedSecret,
			Description:  entry.Description,
		}
	}

	return &StaticCredentialResolver{credentials: credentials}, nil
}

// Resolve はsystem_idに対応する認証情報を返す。
// 未登録の場合はErrUnknownSystemを返す。
func (r *StaticCredentialResolver) Resolve(ctx context.Context, systemID string) (*domain.SystemCredential, error) {
	credential, ok := r.credentials[systemID]
	if !ok {
		return nil, domain.ErrUnknownSystem
	}
	return credential, nil
}

// Len は登録されているシステム数を返す。
func (r *StaticCredentialResolver) Len() int {
	return len(r.credentials)
}
