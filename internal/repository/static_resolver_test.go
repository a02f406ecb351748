package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"data-anonymization-service/internal/domain"
)

// writeSystemsFile はテスト用のsystemsファイルを作成する。
func writeSystemsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "systems.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write systems file: %v", err)
	}
	return path
}

func TestStaticCredentialResolver_Resolve(t *testing.T) {
	path := writeSystemsFile(t, `{
		"systems": [
			{"system_id": "crm-prod", "shared_secret": "secret-1", "description": "CRM production"},
			{"system_id": "bi-tool", "shared_secret": "secret-2"}
		]
	}`)

	resolver, err := NewStaticCredentialResolver(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolver.Len() != 2 {
		t.Errorf("want 2 systems, got %d", resolver.Len())
	}

	credential, err := resolver.Resolve(context.Background(), "crm-prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if credential.SharedSecret != "secret-1" {
		t.Errorf("want secret-1, got %s", credential.SharedSecret)
	}
	if credential.Description != "CRM production" {
		t.Errorf("want description set, got %s", credential.Description)
	}
}

func TestStaticCredentialResolver_UnknownSystem(t *testing.T) {
	path := writeSystemsFile(t, `{"systems": [{"system_id": "crm-prod", "shared_secret": "secret-1"}]}`)

	resolver, err := NewStaticCredentialResolver(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = resolver.Resolve(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrUnknownSystem) {
		t.Errorf("want ErrUnknownSystem, got %v", err)
	}
}

func TestStaticCredentialResolver_FileNotFound(t *testing.T) {
	_, err := NewStaticCredentialResolver("/nonexistent/systems.json")
	if err == nil {
		t.Error("want error for missing file, got nil")
	}
}

func TestStaticCredentialResolver_EmptySystems(t *testing.T) {
	path := writeSystemsFile(t, `{"systems": []}`)

	_, err := NewStaticCredentialResolver(path)
	if err == nil {
		t.Error("want error for empty systems, got nil")
	}
}

func TestStaticCredentialResolver_DuplicateSystemID(t *testing.T) {
	path := writeSystemsFile(t, `{
		"systems": [
			{"system_id": "crm-prod", "shared_secret": "secret-1"},
			{"system_id": "crm-prod", "shared_secret": "secret-2"}
		]
	}`)

	_, err := NewStaticCredentialResolver(path)
	if !errors.Is(err, domain.ErrInvalidSystemID) {
		t.Errorf("want ErrInvalidSystemID, got %v", err)
	}
}

func TestStaticCredentialResolver_EmptySharedSecret(t *testing.T) {
	path := writeSystemsFile(t, `{"systems": [{"system_id": "crm-prod", "shared_secret": ""}]}`)

	_, err := NewStaticCredentialResolver(path)
	if err == nil {
		t.Error("want error for empty shared_secret, got nil")
	}
}
