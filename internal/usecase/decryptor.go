package usecase

import (
	"sort"
	"strings"

	"data-anonymization-service/internal/domain"
)

// Decryptor は対応表に基づいて匿名化済みコンテンツを復元する。
type Decryptor struct {
	codeToValue  map[string]string      // 全カテゴリを平坦化したコード -> 元の値
	placeholders map[string]interface{} // プレースホルダ -> 元の値（型を保持）
	tokens       []string               // 既知トークンを長さ降順に並べたもの
}

// NewDecryptor は対応表からDecryptorを生成する。
// 両方の対応表が空の場合はErrMappingTableEmptyを返す（呼び出し元の誤りの兆候）。
func NewDecryptor(table domain.MappingTable) (*Decryptor, error) {
	if table.Empty() {
		return nil, domain.ErrMappingTableEmpty
	}

	d := &Decryptor{
		codeToValue:  make(map[string]string),
		placeholders: make(map[string]interface{}),
	}

	for _, typeMap := range table.CategoricalMappings {
		for code, value := range typeMap {
			d.codeToValue[code] = value
			d.tokens = append(d.tokens, code)
		}
	}
	for placeholder, value := range table.MetricPlaceholderMappings {
		d.placeholders[placeholder] = value
		d.tokens = append(d.tokens, placeholder)
	}

	// 長いトークンを先に置換し、短い無関係なトークンが長いトークンの
	// 一部を部分一致で壊さないようにする（USER_COUNT_plc_1 と USER_COUNT_plc_10）。
	sort.Slice(d.tokens, func(i, j int) bool {
		if len(d.tokens[i]) != len(d.tokens[j]) {
			return len(d.tokens[i]) > len(d.tokens[j])
		}
		return d.tokens[i] < d.tokens[j]
	})

	return d, nil
}

// Decrypt は自由テキストまたは構造化JSONを復元する。
// 対応表に存在しないトークンはそのまま残す（エラーではない）。
func (d *Decryptor) Decrypt(data interface{}) interface{} {
	switch v := data.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, elem := range v {
			result[k] = d.Decrypt(elem)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, elem := range v {
			result[i] = d.Decrypt(elem)
		}
		return result
	case string:
		return d.decryptString(v)
	default:
		return data
	}
}

// decryptString は文字列リーフを復元する。
// リーフ全体が既知トークンに完全一致する場合は元の値を型ごと復元し、
// そうでなければテキスト内置換を行う。
func (d *Decryptor) decryptString(s string) interface{} {
	if value, ok := d.placeholders[s]; ok {
		return value
	}
	if value, ok := d.codeToValue[s]; ok {
		return value
	}
	return d.decryptText(s)
}

// decryptText はテキスト内の既知トークンを元の値に置換する。
// 復元済みの区間は凍結し、元の値の中に別トークンと同じ文字列が
// 含まれていても再置換しない。
func (d *Decryptor) decryptText(text string) string {
	segs := []segment{{text: text}}

	for _, token := range d.tokens {
		restored := d.restoredText(token)
		var next []segment
		for _, seg := range segs {
			if seg.frozen || !strings.Contains(seg.text, token) {
				next = append(next, seg)
				continue
			}
			rest := seg.text
			for rest != "" {
				idx := strings.Index(rest, token)
				if idx < 0 {
					next = append(next, segment{text: rest})
					break
				}
				if idx > 0 {
					next = append(next, segment{text: rest[:idx]})
				}
				next = append(next, segment{text: restored, frozen: true})
				rest = rest[idx+len(token):]
			}
		}
		segs = next
	}

	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.text)
	}
	return b.String()
}

// restoredText はトークンのテキスト置換用の復元文字列を返す。
func (d *Decryptor) restoredText(token string) string {
	if value, ok := d.codeToValue[token]; ok {
		return value
	}
	return formatValue(d.placeholders[token])
}
