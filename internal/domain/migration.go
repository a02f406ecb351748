package domain

import "time"

// MigrationStatus はスキーママイグレーションの適用状態を表す。
type MigrationStatus string

const (
	// MigrationStatusPending は未適用のマイグレーションを表す。
	MigrationStatusPending MigrationStatus = "pending"
	// MigrationStatusApplied は適用済みのマイグレーションを表す。
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration は認証情報ストアのスキーママイグレーション1件を表す。
// VersionとNameはファイル名 {version}_{name}.sql から導出する。
type Migration struct {
	Version   string
	Name      string
	FilePath  string
	Status    MigrationStatus
	AppliedAt *time.Time // 未適用の場合はnil
}
