package usecase

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"data-anonymization-service/internal/domain"
)

func TestNewDecryptor_EmptyMappingTable(t *testing.T) {
	_, err := NewDecryptor(domain.NewMappingTable())
	if !errors.Is(err, domain.ErrMappingTableEmpty) {
		t.Errorf("want ErrMappingTableEmpty, got %v", err)
	}
}

func TestNewDecryptor_EmptyNestedCategories(t *testing.T) {
	table := domain.NewMappingTable()
	table.CategoricalMappings["REGION"] = map[string]string{}

	_, err := NewDecryptor(table)
	if !errors.Is(err, domain.ErrMappingTableEmpty) {
		t.Errorf("want ErrMappingTableEmpty, got %v", err)
	}
}

func TestDecryptor_RestoresCodesInText(t *testing.T) {
	table := domain.NewMappingTable()
	table.PutCode("REGION", "REGION_a1b2", "华东")
	table.PutCode("REGION", "REGION_c3d4", "华北")

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := d.Decrypt("REGION_a1b2 outperformed REGION_c3d4 this quarter.")
	if result != "华东 outperformed 华北 this quarter." {
		t.Errorf("want restored text, got %v", result)
	}
}

func TestDecryptor_ExactPlaceholderRestoresType(t *testing.T) {
	table := domain.NewMappingTable()
	table.PutPlaceholder("REVENUE_plc_1", 1500000.0)

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// リーフ全体がプレースホルダに一致する場合は元の型で復元する
	result := d.Decrypt("REVENUE_plc_1")
	if result != 1500000.0 {
		t.Errorf("want float64 1500000, got %v (%T)", result, result)
	}
}

func TestDecryptor_PlaceholderInsideTextAsString(t *testing.T) {
	table := domain.NewMappingTable()
	table.PutPlaceholder("REVENUE_plc_1", 1500000.0)

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := d.Decrypt("revenue hit REVENUE_plc_1 in Q3")
	if result != "revenue hit 1500000 in Q3" {
		t.Errorf("want text with formatted value, got %v", result)
	}
}

func TestDecryptor_UnknownTokenUnchanged(t *testing.T) {
	table := domain.NewMappingTable()
	table.PutCode("REGION", "REGION_a1b2", "华东")

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := d.Decrypt("REGION_a1b2 and REGION_ffff")
	if result != "华东 and REGION_ffff" {
		t.Errorf("want unknown token left intact, got %v", result)
	}
}

func TestDecryptor_LongestTokenFirst(t *testing.T) {
	// USER_COUNT_plc_1 が USER_COUNT_plc_10 の接頭辞になっているケース
	table := domain.NewMappingTable()
	table.PutPlaceholder("USER_COUNT_plc_1", 100.0)
	table.PutPlaceholder("USER_COUNT_plc_10", 999.0)

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := d.Decrypt("counts: USER_COUNT_plc_10 vs USER_COUNT_plc_1")
	if result != "counts: 999 vs 100" {
		t.Errorf("want longest token restored first, got %v", result)
	}
}

func TestDecryptor_RestoredValueNotReprocessed(t *testing.T) {
	// 復元した値の中に別の既知トークンと同じ文字列が含まれていても再置換しない
	table := domain.NewMappingTable()
	table.PutCode("SUMMARY", "SUMMARY_aaaa", "see REGION_bbbb for details")
	table.PutCode("REGION", "REGION_bbbb", "华东")

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := d.Decrypt("ref: SUMMARY_aaaa").(string)
	if result != "ref: see REGION_bbbb for details" {
		t.Errorf("want restored value frozen, got %v", result)
	}
}

func TestDecryptor_StructuredTraversal(t *testing.T) {
	table := domain.NewMappingTable()
	table.PutCode("REGION", "REGION_a1b2", "华东")
	table.PutPlaceholder("REVENUE_plc_1", 1500000.0)

	d, err := NewDecryptor(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := map[string]interface{}{
		"entries": []interface{}{
			map[string]interface{}{
				"region":  "REGION_a1b2",
				"revenue": "REVENUE_plc_1",
				"count":   3.0,
			},
		},
	}

	want := map[string]interface{}{
		"entries": []interface{}{
			map[string]interface{}{
				"region":  "华东",
				"revenue": 1500000.0,
				"count":   3.0,
			},
		},
	}

	result := d.Decrypt(data)
	if !reflect.DeepEqual(result, want) {
		t.Errorf("want %v, got %v", want, result)
	}
}

func TestAnonymizeDecrypt_Roundtrip(t *testing.T) {
	rules := []domain.AnonymizationRule{
		mapCodeRule("REGION", "华东", "华北"),
		placeholderRule("REVENUE", 1500000.0, 980000.0),
	}
	a := NewAnonymizer(rules, AnonymizerOptions{Tokens: &fixedTokenSource{}})

	payload := map[string]interface{}{
		"summary": "华东 beat 华北 by a wide margin",
		"sales": []interface{}{
			map[string]interface{}{"region": "华东", "revenue": 1500000.0},
			map[string]interface{}{"region": "华北", "revenue": 980000.0},
		},
	}

	anonymized, err := a.Anonymize(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 匿名化結果に元のカテゴリ値が残っていないこと
	summary := anonymized.(map[string]interface{})["summary"].(string)
	if strings.Contains(summary, "华东") || strings.Contains(summary, "华北") {
		t.Errorf("want original values removed, got %s", summary)
	}

	d, err := NewDecryptor(a.Mappings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := d.Decrypt(anonymized)
	if !reflect.DeepEqual(restored, payload) {
		t.Errorf("want roundtrip to restore payload, got %v", restored)
	}
}
