package domain

import "fmt"

// IDSlice ID切片，JSON中每个元素都是字符串
type IDSlice []ID

// FromInt64s 由生成器返回的原始ID构造切片
func FromInt64s(raw []int64) IDSlice {
	result := make(IDSlice, len(raw))
	for i, v := range raw {
		result[i] = ID(v)
	}
	return result
}

// Int64Slice 转换为int64切片
func (ids IDSlice) Int64Slice() []int64 {
	result := make([]int64, len(ids))
	for i, id := range ids {
		result[i] = id.Int64()
	}
	return result
}

// StringSlice 转换为字符串切片
func (ids IDSlice) StringSlice() []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = id.String()
	}
	return result
}

// Contains 检查是否包含指定ID（线性查找）
func (ids IDSlice) Contains(id ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// First 获取第一个元素
func (ids IDSlice) First() (ID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Last 获取最后一个元素
func (ids IDSlice) Last() (ID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[len(ids)-1], true
}

// IsStrictlyIncreasing 检查ID是否严格递增（同一生成器的输出应满足）
func (ids IDSlice) IsStrictlyIncreasing() bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return false
		}
	}
	return true
}

// Deduplicate 去重，保持首次出现的顺序
func (ids IDSlice) Deduplicate() IDSlice {
	seen := make(map[ID]struct{}, len(ids))
	result := make(IDSlice, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// ValidateAll 按默认位布局验证所有ID
func (ids IDSlice) ValidateAll() error {
	for i, id := range ids {
		if err := id.Validate(); err != nil {
			return fmt.Errorf("invalid ID at index %d: %w", i, err)
		}
	}
	return nil
}
