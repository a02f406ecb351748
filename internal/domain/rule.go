// Package domain はドメインモデルとビジネスルールを定義する。
package domain

// AnonymizationStrategy は匿名化戦略を表す。
type AnonymizationStrategy string

const (
	// StrategyMapCode はカテゴリ値を可逆なコードに置換する戦略。
	StrategyMapCode AnonymizationStrategy = "MAP_CODE"
	// StrategyMapPlaceholder は数値をプレースホルダに置換する戦略。
	StrategyMapPlaceholder AnonymizationStrategy = "MAP_PLACEHOLDER"
	// StrategyTransform は数値にノイズを加える不可逆な戦略。
	StrategyTransform AnonymizationStrategy = "TRANSFORM"
	// StrategyPassthrough は値を変更しない戦略。
	StrategyPassthrough AnonymizationStrategy = "PASSTHROUGH"
)

// DefaultNoiseLevel はTRANSFORM戦略のデフォルトのノイズレベル（5%）。
const DefaultNoiseLevel = 0.05

// AppliesTo はルールの適用対象を表す。
type AppliesTo struct {
	Type   string        `json:"type"`
	Values []interface{} `json:"values"`
}

// AnonymizationRule は匿名化ルールを表す。
type AnonymizationRule struct {
	Strategy       AnonymizationStrategy  `json:"strategy"`
	StrategyParams map[string]interface{} `json:"strategy_params,omitempty"`
	AppliesTo      AppliesTo              `json:"applies_to"`
}

// NoiseLevel はstrategy_paramsからノイズレベルを取得する。
// 未指定の場合はDefaultNoiseLevelを返す。
func (r AnonymizationRule) NoiseLevel() float64 {
	if r.StrategyParams == nil {
		return DefaultNoiseLevel
	}
	if nl, ok := r.StrategyParams["noise_level"].(float64); ok {
		return nl
	}
	return DefaultNoiseLevel
}
