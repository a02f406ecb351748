package domain

import "errors"

var (
	// ErrUnknownSystem は指定されたsystem_idの認証情報が存在しない場合のエラー。
	ErrUnknownSystem = errors.New("unknown system")

	// ErrCredentialAlreadyExists は指定されたsystem_idの認証情報が既に存在する場合のエラー。
	ErrCredentialAlreadyExists = errors.New("credential already exists")

	// ErrCredentialAlreadyDisabled は認証情報が既に無効化されている場合のエラー。
	ErrCredentialAlreadyDisabled = errors.New("credential is already disabled")

	// ErrMalformedPayload はペイロードの構造が期待する形式と一致しない場合のエラー。
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMappingTableEmpty は復元時に対応表が空の場合のエラー。
	ErrMappingTableEmpty = errors.New("mapping table is empty")

	// ErrInvalidSystemID はsystem_idの形式が不正な場合のエラー。
	ErrInvalidSystemID = errors.New("invalid system ID")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMigrationFileNotFound はマイグレーションファイルが見つからない場合のエラー。
	ErrMigrationFileNotFound = errors.New("migration file not found")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
