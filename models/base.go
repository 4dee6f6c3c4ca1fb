package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewID 生成实体主键
func NewID() string {
	return uuid.NewString()
}

func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

// jsonValue 将结构化字段序列化为 JSON 列
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// jsonScan 从 JSON 列反序列化，兼容 []byte 与 string 两种驱动返回值
func jsonScan(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// StringList JSON 数组列
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src interface{}) error {
	return jsonScan(src, (*[]string)(l))
}

// All 返回所有需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&Family{},
		&FamilyMember{},
		&FamilyGoal{},
		&Budget{},
		&Transaction{},
		&SmartAlert{},
		&EducationalContent{},
		&LearningProgress{},
		&Investment{},
		&FinancialService{},
		&AdviceMessage{},
	}
}
