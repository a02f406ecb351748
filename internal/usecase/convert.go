package usecase

import (
	"fmt"
	"strconv"
)

// toFloat64 は数値型をfloat64に変換する。数値でない場合はok=falseを返す。
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return 0, false
	}
}

// parseNumeric は数値文字列をfloat64として解釈する。
func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// formatValue は値をテキスト置換用の文字列表現に変換する。
// 整数値のfloat64は小数点を付けずに表記する（12000.0 -> "12000"）。
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(v)
	}
}
