package domain

import "time"

// CredentialStatus はシステム認証情報のステータスを表す。
type CredentialStatus string

const (
	// CredentialStatusActive は有効な認証情報を表す。
	CredentialStatusActive CredentialStatus = "active"
	// CredentialStatusDisabled は無効化された認証情報を表す。
	CredentialStatusDisabled CredentialStatus = "disabled"
)

// SystemCredential は呼び出し元システムの共有秘密鍵を表す。
// リクエスト処理中は読み取り専用であり、外部へ送信してはならない。
type SystemCredential struct {
	SystemID     string
	SharedSecret string
	Description  string
}

// CredentialRecord は保存形式のシステム認証情報エンティティを表す。
// SharedSecretはKMSで暗号化された状態で保持する。
type CredentialRecord struct {
	ID              string
	SystemID        string
	EncryptedSecret []byte
	Description     string
	Status          CredentialStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
