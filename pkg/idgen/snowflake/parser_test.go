package snowflake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-snowflake/pkg/idgen/core"
)

// TestParser 测试解析器
func TestParser(t *testing.T) {
	clock := newFakeClock(testNow)
	p := NewParser(DefaultLayout, clock)

	id := DefaultLayout.Encode(testNow, 7, 9, 42)
	info, err := p.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, &core.IDInfo{
		ID:           id,
		Timestamp:    testNow,
		DatacenterID: 7,
		WorkerID:     9,
		Sequence:     42,
	}, info)

	assert.Equal(t, time.UnixMilli(testNow), p.ExtractTime(id))
	assert.True(t, p.ExtractTime(-1).IsZero())
	assert.Equal(t, "1700000000000-7-9-42", p.String(id))

	_, err = p.Parse(0)
	assert.ErrorIs(t, err, core.ErrInvalidSnowflakeID)
}

func TestParseSnowflakeID(t *testing.T) {
	id := DefaultLayout.Encode(testNow, 1, 2, 3)
	ts, dc, worker, seq := ParseSnowflakeID(id)
	assert.Equal(t, testNow, ts)
	assert.Equal(t, int64(1), dc)
	assert.Equal(t, int64(2), worker)
	assert.Equal(t, int64(3), seq)

	assert.Equal(t, time.UnixMilli(testNow), GetTimestamp(id))
}

// TestValidator 测试验证器
func TestValidator(t *testing.T) {
	clock := newFakeClock(testNow)
	v := NewValidator(DefaultLayout, clock)

	tests := []struct {
		name    string
		id      int64
		wantErr bool
	}{
		{name: "正常ID", id: DefaultLayout.Encode(testNow, 1, 1, 0)},
		{name: "容差内的未来ID", id: DefaultLayout.Encode(testNow+maxFutureTimeTolerance, 1, 1, 0)},
		{name: "超出容差的未来ID", id: DefaultLayout.Encode(testNow+maxFutureTimeTolerance+1, 1, 1, 0), wantErr: true},
		{name: "零", id: 0, wantErr: true},
		{name: "负数", id: -100, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidSnowflakeID)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidator_ValidateBatch(t *testing.T) {
	v := NewValidator(DefaultLayout, newFakeClock(testNow))
	good := DefaultLayout.Encode(testNow, 0, 0, 1)

	assert.NoError(t, v.ValidateBatch([]int64{good, good + 1}))
	assert.NoError(t, v.ValidateBatch([]int64{}))

	err := v.ValidateBatch(nil)
	assert.ErrorIs(t, err, core.ErrInvalidSnowflakeID)

	err = v.ValidateBatch([]int64{good, -1})
	assert.ErrorIs(t, err, core.ErrInvalidSnowflakeID)
	assert.Contains(t, err.Error(), "index 1")
}

func TestValidateID(t *testing.T) {
	gen, err := New(0, 0)
	require.NoError(t, err)
	id, err := gen.NextID()
	require.NoError(t, err)

	assert.NoError(t, ValidateID(id))
	assert.Error(t, ValidateID(0))
}
