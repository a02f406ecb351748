package signature

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeHeader_DecodeHeader_Roundtrip(t *testing.T) {
	req := Sign("crm-prod", "user-42", []byte(`{"k":"v"}`), "secret-key", 1700000000)

	header := EncodeHeader(req)
	fields, err := DecodeHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fields.SystemID != "crm-prod" {
		t.Errorf("want system_id crm-prod, got %s", fields.SystemID)
	}
	if fields.UserID != "user-42" {
		t.Errorf("want user_id user-42, got %s", fields.UserID)
	}
	if fields.Timestamp != 1700000000 {
		t.Errorf("want timestamp 1700000000, got %d", fields.Timestamp)
	}
	if fields.Signature != req.Signature {
		t.Errorf("want signature %s, got %s", req.Signature, fields.Signature)
	}
}

func TestDecodeHeader_KeyOrderInsensitive(t *testing.T) {
	header := "MCP-HMAC-SHA256 Signature=abc123,Timestamp=1700000000,UserID=user-42,SystemID=crm-prod"

	fields, err := DecodeHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.SystemID != "crm-prod" {
		t.Errorf("want system_id crm-prod, got %s", fields.SystemID)
	}
	if fields.Signature != "abc123" {
		t.Errorf("want signature abc123, got %s", fields.Signature)
	}
}

func TestDecodeHeader_SpacesAroundPairsAllowed(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID=crm-prod, UserID=user-42, Timestamp=1700000000, Signature=abc123"

	fields, err := DecodeHeader(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields.UserID != "user-42" {
		t.Errorf("want user_id user-42, got %s", fields.UserID)
	}
}

func TestDecodeHeader_WrongScheme(t *testing.T) {
	header := "Bearer SystemID=crm-prod,UserID=user-42,Timestamp=1700000000,Signature=abc123"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_MissingScheme(t *testing.T) {
	_, err := DecodeHeader("SystemID=crm-prod")
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_MissingKey(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID=crm-prod,UserID=user-42,Timestamp=1700000000"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_EmptyValue(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID=crm-prod,UserID=,Timestamp=1700000000,Signature=abc123"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
	// 欠落ではなく空の値として報告される
	if !strings.Contains(err.Error(), "empty value") {
		t.Errorf("want empty value message, got %v", err)
	}
}

func TestDecodeHeader_DuplicateKey(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID=a,SystemID=b,UserID=user-42,Timestamp=1700000000,Signature=abc123"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_InvalidTimestamp(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID=crm-prod,UserID=user-42,Timestamp=notanumber,Signature=abc123"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeHeader_InvalidParameter(t *testing.T) {
	header := "MCP-HMAC-SHA256 SystemID"

	_, err := DecodeHeader(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("want ErrMalformedHeader, got %v", err)
	}
}
