// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"data-anonymization-service/internal/domain"
)

// TokenSource はコード接尾辞とノイズ係数の生成源。
// テストでは決定的な実装を注入してトークンを完全に検証できる。
type TokenSource interface {
	// CodeSuffix は4文字の16進接尾辞を返す。
	CodeSuffix() string
	// NoiseFactor は[-1, 1)の係数を返す。
	NoiseFactor() float64
}

// cryptoTokenSource はcrypto/randに基づくデフォルトのTokenSource。
type cryptoTokenSource struct{}

func (cryptoTokenSource) CodeSuffix() string {
	buf := make([]byte, 2)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (cryptoTokenSource) NoiseFactor() float64 {
	buf := make([]byte, 8)
	rand.Read(buf)
	n := binary.BigEndian.Uint64(buf)
	// [0,1)に正規化してから[-1,1)へ
	return float64(n)/float64(math.MaxUint64)*2 - 1
}

// AnonymizerOptions はAnonymizerの動作オプション。
type AnonymizerOptions struct {
	// Tokens はトークン生成源。nilの場合はcrypto/randベースを使用する。
	Tokens TokenSource
	// MatchNumericStrings を有効にすると、数値リテラルと数値文字列
	// （例: 1500000 と "1500000"）を相互に一致させる。
	MatchNumericStrings bool
}

// Anonymizer はルール駆動の匿名化エンジン。
// 1回の呼び出しに閉じた対応表を構築するため、呼び出しごとに生成する。
type Anonymizer struct {
	rules    []domain.AnonymizationRule
	opts     AnonymizerOptions
	mappings domain.MappingTable

	valueToToken        map[string]string // type:value -> 生成済みトークン（呼び出し内の一貫性を保証）
	placeholderCounters map[string]int    // type -> プレースホルダ連番
	warnings            []string
	plan                []textReplacement
	planBuilt           bool
}

// textReplacement はテキスト走査で置換するリテラルと適用ルールの組。
// valueは元のルール値であり、数値文字列一致で数値リテラルがテキスト走査に
// 参加した場合も対応表には型付きの元の値を登録する。
type textReplacement struct {
	literal string
	value   interface{}
	rule    domain.AnonymizationRule
}

// NewAnonymizer は新しいAnonymizerを生成する。
func NewAnonymizer(rules []domain.AnonymizationRule, opts AnonymizerOptions) *Anonymizer {
	if opts.Tokens == nil {
		opts.Tokens = cryptoTokenSource{}
	}
	return &Anonymizer{
		rules:               rules,
		opts:                opts,
		mappings:            domain.NewMappingTable(),
		valueToToken:        make(map[string]string),
		placeholderCounters: make(map[string]int),
	}
}

// Anonymize はペイロードを匿名化する。
// ペイロードに存在しないリテラルは黙ってスキップする（エラーではない）。
func (a *Anonymizer) Anonymize(payload interface{}) (interface{}, error) {
	a.validateRules()
	return a.anonymizeValue(payload), nil
}

// validateRules は数値専用戦略に非数値のルール値が指定されていないか検査する。
// 違反は呼び出しを中断せず、フィールド単位の警告として記録する。
func (a *Anonymizer) validateRules() {
	for _, rule := range a.rules {
		if rule.Strategy != domain.StrategyTransform {
			continue
		}
		for _, val := range rule.AppliesTo.Values {
			if _, ok := toFloat64(val); ok {
				continue
			}
			if s, isStr := val.(string); isStr && a.opts.MatchNumericStrings {
				if _, ok := parseNumeric(s); ok {
					continue
				}
			}
			a.warnf("TRANSFORM: non-numeric value %v (type %s): %v", val, rule.AppliesTo.Type, domain.ErrMalformedPayload)
		}
	}
}

// Mappings は構築済みの対応表を返す。
func (a *Anonymizer) Mappings() domain.MappingTable {
	return a.mappings
}

// Warnings はフィールド単位で記録したMalformedPayload警告を返す。
// 数値戦略に非数値が紛れても呼び出し全体は中断しない。
func (a *Anonymizer) Warnings() []string {
	return a.warnings
}

// anonymizeValue は値を再帰的に匿名化する。
func (a *Anonymizer) anonymizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, elem := range v {
			result[k] = a.anonymizeValue(elem)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, elem := range v {
			result[i] = a.anonymizeValue(elem)
		}
		return result
	case string:
		return a.anonymizeString(v)
	case float64, int, int64:
		return a.anonymizeNumber(v)
	default:
		return value
	}
}

// buildPlan はテキスト置換計画を構築する。
// ルールは与えられた順に評価し、同じリテラルを複数ルールが対象にした場合は
// 先勝ちとする。置換はリテラル長の降順で行い、短いリテラルが長いリテラルの
// 一致を壊さないようにする。
func (a *Anonymizer) buildPlan() []textReplacement {
	if a.planBuilt {
		return a.plan
	}

	claimed := make(map[string]bool)
	for _, rule := range a.rules {
		for _, val := range rule.AppliesTo.Values {
			literal, ok := a.textLiteral(val, rule.Strategy)
			if !ok || literal == "" || claimed[literal] {
				continue
			}
			claimed[literal] = true
			a.plan = append(a.plan, textReplacement{literal: literal, value: val, rule: rule})
		}
	}

	// 長さ降順の安定ソート（同じ長さはルール順を維持）
	for i := 0; i < len(a.plan); i++ {
		for j := i + 1; j < len(a.plan); j++ {
			if len(a.plan[i].literal) < len(a.plan[j].literal) {
				a.plan[i], a.plan[j] = a.plan[j], a.plan[i]
			}
		}
	}

	a.planBuilt = true
	return a.plan
}

// textLiteral はルール値をテキスト走査用のリテラルに変換する。
// TRANSFORMは数値専用の戦略のためテキスト走査には参加しない。
func (a *Anonymizer) textLiteral(val interface{}, strategy domain.AnonymizationStrategy) (string, bool) {
	if strategy == domain.StrategyTransform {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case float64, int, int64:
		if a.opts.MatchNumericStrings {
			return formatValue(v), true
		}
		return "", false
	default:
		return "", false
	}
}

// segment は置換処理中のテキスト断片。frozenな断片は生成済みトークンで
// あり、以降の置換で再処理してはならない。
type segment struct {
	text   string
	frozen bool
}

// anonymizeString は文字列リテラルおよび自由テキストを匿名化する。
func (a *Anonymizer) anonymizeString(s string) string {
	segs := []segment{{text: s}}

	for _, repl := range a.buildPlan() {
		var next []segment
		for _, seg := range segs {
			if seg.frozen || !strings.Contains(seg.text, repl.literal) {
				next = append(next, seg)
				continue
			}
			token := a.tokenForLiteral(repl)
			rest := seg.text
			for rest != "" {
				idx := strings.Index(rest, repl.literal)
				if idx < 0 {
					next = append(next, segment{text: rest})
					break
				}
				if idx > 0 {
					next = append(next, segment{text: rest[:idx]})
				}
				next = append(next, segment{text: token, frozen: true})
				rest = rest[idx+len(repl.literal):]
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

// tokenForLiteral はリテラルに対する置換トークンを戦略に従って決定する。
// 同一の（種別, 値）の組には常に同じトークンを返す。
func (a *Anonymizer) tokenForLiteral(repl textReplacement) string {
	dataType := repl.rule.AppliesTo.Type
	switch repl.rule.Strategy {
	case domain.StrategyMapCode:
		return a.codeFor(dataType, repl.literal)
	case domain.StrategyMapPlaceholder:
		return a.placeholderFor(dataType, repl.value)
	default:
		// PASSTHROUGH: 値そのものを凍結し、後続ルールの再処理を防ぐ
		return repl.literal
	}
}

// anonymizeNumber は数値リーフを匿名化する。最初に一致したルールが勝つ。
func (a *Anonymizer) anonymizeNumber(n interface{}) interface{} {
	for _, rule := range a.rules {
		for _, val := range rule.AppliesTo.Values {
			if !a.numbersEqual(val, n) {
				continue
			}
			return a.applyNumberStrategy(n, rule)
		}
	}
	return n
}

// applyNumberStrategy は数値リーフに戦略を適用する。
func (a *Anonymizer) applyNumberStrategy(n interface{}, rule domain.AnonymizationRule) interface{} {
	switch rule.Strategy {
	case domain.StrategyTransform:
		return a.transformNumber(n, rule)
	case domain.StrategyMapPlaceholder:
		return a.placeholderFor(rule.AppliesTo.Type, n)
	default:
		// MAP_CODEはカテゴリ文字列専用。数値にはPASSTHROUGH同様に素通しする。
		return n
	}
}

// codeFor は<TYPE>_<4hex>形式のコードを生成し対応表に登録する。
// 呼び出し内で衝突しないまで接尾辞を引き直す。
func (a *Anonymizer) codeFor(dataType, value string) string {
	key := dataType + ":" + value
	if code, ok := a.valueToToken[key]; ok {
		return code
	}

	var code string
	for {
		code = fmt.Sprintf("%s_%s", dataType, a.opts.Tokens.CodeSuffix())
		if !a.mappings.HasCode(code) {
			break
		}
	}

	a.mappings.PutCode(dataType, code, value)
	a.valueToToken[key] = code
	return code
}

// placeholderFor は<TYPE>_plc_<連番>形式のプレースホルダを生成し登録する。
// 連番は種別ごとに呼び出し内でインクリメントする。
func (a *Anonymizer) placeholderFor(dataType string, original interface{}) string {
	key := dataType + ":" + formatValue(original)
	if placeholder, ok := a.valueToToken[key]; ok {
		return placeholder
	}

	a.placeholderCounters[dataType]++
	placeholder := fmt.Sprintf("%s_plc_%d", dataType, a.placeholderCounters[dataType])

	a.mappings.PutPlaceholder(placeholder, original)
	a.valueToToken[key] = placeholder
	return placeholder
}

// transformNumber は数値にnoise_levelで上限が定まる加法ノイズを加える。
// 対応表には何も登録しない（意図的に不可逆）。noise_level=0なら値は変わらない。
func (a *Anonymizer) transformNumber(n interface{}, rule domain.AnonymizationRule) interface{} {
	num, ok := toFloat64(n)
	if !ok {
		a.warnf("TRANSFORM: non-numeric value %v (type %s): %v", n, rule.AppliesTo.Type, domain.ErrMalformedPayload)
		return n
	}

	noiseLevel := rule.NoiseLevel()
	if noiseLevel == 0 {
		return num
	}
	return num + num*noiseLevel*a.opts.Tokens.NoiseFactor()
}

// numbersEqual はルール値と数値リーフの一致を判定する。
// MatchNumericStringsが有効な場合は数値文字列のルール値も解釈する。
func (a *Anonymizer) numbersEqual(ruleVal, n interface{}) bool {
	nf, ok := toFloat64(n)
	if !ok {
		return false
	}
	rf, ok := toFloat64(ruleVal)
	if !ok {
		if s, isStr := ruleVal.(string); isStr && a.opts.MatchNumericStrings {
			rf, ok = parseNumeric(s)
		}
		if !ok {
			return false
		}
	}
	return math.Abs(nf-rf) < 1e-4
}

// warnf はフィールド単位の警告を記録する。
func (a *Anonymizer) warnf(format string, args ...interface{}) {
	a.warnings = append(a.warnings, fmt.Sprintf(format, args...))
}
