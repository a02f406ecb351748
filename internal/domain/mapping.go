package domain

// MappingTable は1回の匿名化呼び出しで生成される可逆な対応表を表す。
// 呼び出し元が保持し、復元時にそのまま渡す（サーバー側には保存しない）。
type MappingTable struct {
	// CategoricalMappings はカテゴリ種別 -> (コード -> 元の値) の対応。
	CategoricalMappings map[string]map[string]string `json:"categorical_mappings,omitempty"`
	// MetricPlaceholderMappings はプレースホルダ -> 元の値の対応。
	MetricPlaceholderMappings map[string]interface{} `json:"metric_placeholder_mappings,omitempty"`
}

// NewMappingTable は空のMappingTableを生成する。
func NewMappingTable() MappingTable {
	return MappingTable{
		CategoricalMappings:       make(map[string]map[string]string),
		MetricPlaceholderMappings: make(map[string]interface{}),
	}
}

// Empty は両方の対応表が空かどうかを返す。
func (m MappingTable) Empty() bool {
	for _, typeMap := range m.CategoricalMappings {
		if len(typeMap) > 0 {
			return false
		}
	}
	return len(m.MetricPlaceholderMappings) == 0
}

// HasCode は指定されたコードがいずれかのカテゴリに登録済みか確認する。
// コードはカテゴリをまたいで再利用しない。
func (m MappingTable) HasCode(code string) bool {
	for _, typeMap := range m.CategoricalMappings {
		if _, ok := typeMap[code]; ok {
			return true
		}
	}
	_, ok := m.MetricPlaceholderMappings[code]
	return ok
}

// PutCode はカテゴリ種別にコードと元の値を登録する。
func (m MappingTable) PutCode(dataType, code, value string) {
	typeMap, ok := m.CategoricalMappings[dataType]
	if !ok {
		typeMap = make(map[string]string)
		m.CategoricalMappings[dataType] = typeMap
	}
	typeMap[code] = value
}

// PutPlaceholder はプレースホルダと元の値を登録する。
func (m MappingTable) PutPlaceholder(placeholder string, value interface{}) {
	m.MetricPlaceholderMappings[placeholder] = value
}
