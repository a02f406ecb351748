package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"data-anonymization-service/internal/domain"
	"data-anonymization-service/internal/middleware"
	"data-anonymization-service/internal/usecase"
	"data-anonymization-service/pkg/signature"
)

// mockResolver はテスト用のCredentialResolver。
type mockResolver struct {
	credentials map[string]string
}

func (m *mockResolver) Resolve(ctx context.Context, systemID string) (*domain.SystemCredential, error) {
	secret, ok := m.credentials[systemID]
	if !ok {
		return nil, domain.ErrUnknownSystem
	}
	return &domain.SystemCredential{SystemID: systemID, SharedSecret: secret}, nil
}

func setupRouter(now time.Time) http.Handler {
	resolver := &mockResolver{credentials: map[string]string{"crm-prod": "secret-key"}}
	auth := middleware.NewHMACAuth(resolver, 5*time.Minute).WithClock(func() time.Time { return now })

	anonymization := NewAnonymizationHandler(usecase.AnonymizerOptions{})
	decryption := NewDecryptionHandler()
	return NewRouter(anonymization, decryption, auth)
}

func signedPost(t *testing.T, router http.Handler, path string, body []byte, now time.Time) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	signed := signature.Sign("crm-prod", "user-42", body, "secret-key", now.Unix())
	req.Header.Set("Authorization", signature.EncodeHeader(signed))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck_NoAuthRequired(t *testing.T) {
	router := setupRouter(time.Unix(1700000000, 0))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
}

func TestAnonymize_UnauthenticatedRejected(t *testing.T) {
	router := setupRouter(time.Unix(1700000000, 0))

	req := httptest.NewRequest(http.MethodPost, "/v1/anonymize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want status 401, got %d", rec.Code)
	}
}

func TestAnonymize_Success(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{
		"session_id": "sess-001",
		"payload": {
			"summary": "华东 outperformed 华北",
			"revenue": 1500000
		},
		"anonymization_rules": [
			{"strategy": "MAP_CODE", "applies_to": {"type": "REGION", "values": ["华东", "华北"]}},
			{"strategy": "MAP_PLACEHOLDER", "applies_to": {"type": "REVENUE", "values": [1500000]}}
		]
	}`)

	rec := signedPost(t, router, "/v1/anonymize", body, now)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AnonymizationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.SessionID != "sess-001" {
		t.Errorf("want session_id sess-001, got %s", resp.SessionID)
	}

	payload := resp.AnonymizedPayload.(map[string]interface{})
	summary := payload["summary"].(string)
	if strings.Contains(summary, "华东") || strings.Contains(summary, "华北") {
		t.Errorf("want categorical values removed, got %s", summary)
	}

	codePattern := regexp.MustCompile(`REGION_[0-9a-f]{4}`)
	if !codePattern.MatchString(summary) {
		t.Errorf("want REGION_<4hex> codes in summary, got %s", summary)
	}

	if payload["revenue"] != "REVENUE_plc_1" {
		t.Errorf("want REVENUE_plc_1, got %v", payload["revenue"])
	}

	regionMap := resp.MappingsToStore.CategoricalMappings["REGION"]
	if len(regionMap) != 2 {
		t.Errorf("want 2 REGION mappings, got %v", regionMap)
	}
	if resp.MappingsToStore.MetricPlaceholderMappings["REVENUE_plc_1"] != 1500000.0 {
		t.Errorf("want original revenue in mappings, got %v", resp.MappingsToStore.MetricPlaceholderMappings)
	}
}

func TestAnonymize_MissingSessionID(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{
		"payload": {"k": "v"},
		"anonymization_rules": [
			{"strategy": "MAP_CODE", "applies_to": {"type": "REGION", "values": ["华东"]}}
		]
	}`)

	rec := signedPost(t, router, "/v1/anonymize", body, now)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_REQUEST") {
		t.Errorf("want INVALID_REQUEST, got %s", rec.Body.String())
	}
}

func TestAnonymize_MissingRules(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{"session_id": "sess-001", "payload": {"k": "v"}}`)

	rec := signedPost(t, router, "/v1/anonymize", body, now)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d", rec.Code)
	}
}

func TestAnonymize_MalformedJSON(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	rec := signedPost(t, router, "/v1/anonymize", []byte(`{not json`), now)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MALFORMED_PAYLOAD") {
		t.Errorf("want MALFORMED_PAYLOAD, got %s", rec.Body.String())
	}
}

func TestDecrypt_Success(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{
		"data_with_anonymized_codes": "REGION_a1b2 revenue was REVENUE_plc_1, see REGION_ffff",
		"mappings": {
			"categorical_mappings": {"REGION": {"REGION_a1b2": "华东"}},
			"metric_placeholder_mappings": {"REVENUE_plc_1": 1500000}
		}
	}`)

	rec := signedPost(t, router, "/v1/decrypt", body, now)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DecryptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 未知トークンREGION_ffffはそのまま残る
	want := "华东 revenue was 1500000, see REGION_ffff"
	if resp.DecryptedData != want {
		t.Errorf("want %s, got %v", want, resp.DecryptedData)
	}
}

func TestDecrypt_EmptyMappings(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{"data_with_anonymized_codes": "REGION_a1b2", "mappings": {}}`)

	rec := signedPost(t, router, "/v1/decrypt", body, now)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MAPPING_TABLE_EMPTY") {
		t.Errorf("want MAPPING_TABLE_EMPTY, got %s", rec.Body.String())
	}
}

func TestDecrypt_MissingData(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	body := []byte(`{"mappings": {"categorical_mappings": {"REGION": {"REGION_a1b2": "华东"}}}}`)

	rec := signedPost(t, router, "/v1/decrypt", body, now)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_REQUEST") {
		t.Errorf("want INVALID_REQUEST, got %s", rec.Body.String())
	}
}

func TestAnonymizeDecrypt_EndToEnd(t *testing.T) {
	now := time.Unix(1700000000, 0)
	router := setupRouter(now)

	anonymizeBody := []byte(`{
		"session_id": "sess-e2e",
		"payload": "quarterly report for 华东 with revenue 1500000",
		"anonymization_rules": [
			{"strategy": "MAP_CODE", "applies_to": {"type": "REGION", "values": ["华东"]}}
		]
	}`)

	rec := signedPost(t, router, "/v1/anonymize", anonymizeBody, now)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var anonResp AnonymizationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &anonResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decryptReq := DecryptionRequest{
		DataWithAnonymizedCodes: anonResp.AnonymizedPayload,
		Mappings:                anonResp.MappingsToStore,
	}
	decryptBody, err := json.Marshal(decryptReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec = signedPost(t, router, "/v1/decrypt", decryptBody, now)
	if rec.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var decResp DecryptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &decResp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decResp.DecryptedData != "quarterly report for 华东 with revenue 1500000" {
		t.Errorf("want original text restored, got %v", decResp.DecryptedData)
	}
}
