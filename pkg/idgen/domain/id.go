package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/snowflake"
)

const (
	// maxSafeInteger JavaScript最大安全整数 (2^53 - 1)
	maxSafeInteger = 9007199254740991

	// maxParseIDStringLength 解析ID字符串的最大长度（DoS防护）
	maxParseIDStringLength = 100
)

// ID Snowflake ID，JSON中以字符串表示
type ID int64

// NewID 创建新的ID
func NewID(val int64) ID {
	return ID(val)
}

// ParseID 从字符串解析ID
// 说明：支持十进制、十六进制（0x）、二进制（0b）
func ParseID(s string) (ID, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: ID string cannot be empty", core.ErrInvalidSnowflakeID)
	}
	if len(s) > maxParseIDStringLength {
		return 0, fmt.Errorf("%w: ID string too long: max %d characters, got %d",
			core.ErrInvalidSnowflakeID, maxParseIDStringLength, len(s))
	}

	var (
		val int64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		val, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		val, err = strconv.ParseInt(s[2:], 2, 64)
	default:
		val, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidSnowflakeID, err)
	}

	if val < 0 {
		return 0, fmt.Errorf("%w: must be non-negative, got %d", core.ErrInvalidSnowflakeID, val)
	}

	return ID(val), nil
}

// Int64 转换为int64类型
func (id ID) Int64() int64 {
	return int64(id)
}

// String 转换为十进制字符串
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Hex 转换为带0x前缀的十六进制字符串
func (id ID) Hex() string {
	return fmt.Sprintf("0x%x", int64(id))
}

// Binary 转换为带0b前缀的二进制字符串
func (id ID) Binary() string {
	return fmt.Sprintf("0b%b", int64(id))
}

// MarshalJSON 序列化为字符串，避免JavaScript精度丢失
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON 支持从字符串或数字反序列化
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty JSON data", core.ErrInvalidSnowflakeID)
	}
	if len(data) > maxParseIDStringLength {
		return fmt.Errorf("%w: JSON data too large: max %d bytes, got %d",
			core.ErrInvalidSnowflakeID, maxParseIDStringLength, len(data))
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		v, err := ParseID(str)
		if err != nil {
			return err
		}
		*id = v
		return nil
	}

	var num int64
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("%w: expected string or number, got %s", core.ErrInvalidSnowflakeID, string(data))
	}
	if num < 0 {
		return fmt.Errorf("%w: must be non-negative, got %d", core.ErrInvalidSnowflakeID, num)
	}
	*id = ID(num)
	return nil
}

// IsZero 检查ID是否为零值
func (id ID) IsZero() bool {
	return id == 0
}

// IsValid 检查ID是否为正数
func (id ID) IsValid() bool {
	return id > 0
}

// IsSafeForJavaScript 检查ID是否在JavaScript安全整数范围内
func (id ID) IsSafeForJavaScript() bool {
	return int64(id) >= 0 && int64(id) <= maxSafeInteger
}

// Validate 按默认位布局验证ID
func (id ID) Validate() error {
	return snowflake.ValidateID(int64(id))
}

// Info 按给定位布局拆解ID（不做有效性校验）
func (id ID) Info(layout snowflake.Layout) core.IDInfo {
	return layout.Decode(int64(id))
}

// Time 按给定位布局提取生成时间，无效ID返回零值
func (id ID) Time(layout snowflake.Layout) time.Time {
	if !id.IsValid() {
		return time.Time{}
	}
	return time.UnixMilli(layout.Decode(int64(id)).Timestamp)
}
