package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MetricValue 指标数值（保留 2 位小数，JSON 输出为数字）
type MetricValue struct {
	decimal.Decimal
}

// NewMetricValue 从 decimal 创建指标值
func NewMetricValue(value decimal.Decimal) MetricValue {
	return MetricValue{Decimal: value.Round(2)}
}

// NewMetricValueFromInt 从整数创建指标值
func NewMetricValueFromInt(value int64) MetricValue {
	return MetricValue{Decimal: decimal.NewFromInt(value)}
}

// ParseMetricValue 从字符串解析指标值
func ParseMetricValue(raw string) (MetricValue, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return MetricValue{}, fmt.Errorf("invalid metric value %q: %w", raw, err)
	}
	return NewMetricValue(d), nil
}

// MarshalJSON 输出 2 位小数的 JSON 数字
func (m MetricValue) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.Round(2).StringFixed(2)), nil
}

// UnmarshalJSON 解析指标值（字符串或数字）
func (m *MetricValue) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

// Value 用于数据库写入
func (m MetricValue) Value() (driver.Value, error) {
	return m.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (m *MetricValue) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

// Equal 按 2 位小数比较
func (m MetricValue) Equal(other MetricValue) bool {
	return m.Decimal.Round(2).Equal(other.Decimal.Round(2))
}

// String 返回 2 位小数格式
func (m MetricValue) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}
