package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katydid-snowflake/pkg/idgen/core"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout
	require.NoError(t, l.Validate())

	assert.Equal(t, uint(12), l.WorkerShift())
	assert.Equal(t, uint(17), l.DatacenterShift())
	assert.Equal(t, uint(22), l.TimestampShift())
	assert.Equal(t, int64(4095), l.SequenceMask())
	assert.Equal(t, int64(31), l.MaxWorkerID())
	assert.Equal(t, int64(31), l.MaxDatacenterID())
	assert.Equal(t, int64(1<<41-1), l.MaxTimestampDiff())
	assert.Equal(t, int64(1514736000000), l.Epoch)
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{name: "默认布局", layout: DefaultLayout},
		{name: "恰好22位", layout: Layout{Epoch: DefaultEpoch, DatacenterBits: 0, WorkerBits: 10, SequenceBits: 12}},
		{name: "字段更窄，时间戳更宽", layout: Layout{Epoch: DefaultEpoch, DatacenterBits: 3, WorkerBits: 3, SequenceBits: 8}},
		{name: "超出63位", layout: Layout{Epoch: DefaultEpoch, DatacenterBits: 6, WorkerBits: 5, SequenceBits: 12}, wantErr: true},
		{name: "负位宽", layout: Layout{Epoch: DefaultEpoch, DatacenterBits: -1, WorkerBits: 5, SequenceBits: 12}, wantErr: true},
		{name: "序列号位数为0", layout: Layout{Epoch: DefaultEpoch, DatacenterBits: 5, WorkerBits: 5, SequenceBits: 0}, wantErr: true},
		{name: "负Epoch", layout: Layout{Epoch: -1, DatacenterBits: 5, WorkerBits: 5, SequenceBits: 12}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLayout_DerivedShifts(t *testing.T) {
	l := Layout{Epoch: DefaultEpoch, DatacenterBits: 3, WorkerBits: 7, SequenceBits: 9}
	require.NoError(t, l.Validate())

	assert.Equal(t, uint(9), l.WorkerShift())
	assert.Equal(t, uint(16), l.DatacenterShift())
	assert.Equal(t, uint(19), l.TimestampShift())
	assert.Equal(t, int64(511), l.SequenceMask())
	assert.Equal(t, int64(127), l.MaxWorkerID())
	assert.Equal(t, int64(7), l.MaxDatacenterID())
	assert.Equal(t, int64(1<<44-1), l.MaxTimestampDiff())
}

func TestLayout_EncodeDecode(t *testing.T) {
	layouts := []Layout{
		DefaultLayout,
		{Epoch: 0, DatacenterBits: 0, WorkerBits: 10, SequenceBits: 12},
		{Epoch: DefaultEpoch, DatacenterBits: 3, WorkerBits: 7, SequenceBits: 9},
	}

	for _, l := range layouts {
		ts := testNow + 123
		dc := l.MaxDatacenterID()
		worker := l.MaxWorkerID() / 2
		seq := l.SequenceMask()

		id := l.Encode(ts, dc, worker, seq)
		assert.Greater(t, id, int64(0))

		info := l.Decode(id)
		assert.Equal(t, id, info.ID)
		assert.Equal(t, ts, info.Timestamp)
		assert.Equal(t, dc, info.DatacenterID)
		assert.Equal(t, worker, info.WorkerID)
		assert.Equal(t, seq, info.Sequence)
	}
}

func TestLayout_EncodeKnownValue(t *testing.T) {
	// 距Epoch 1毫秒，dc=1，worker=1，seq=1
	id := DefaultLayout.Encode(DefaultEpoch+1, 1, 1, 1)
	assert.Equal(t, int64(1<<22|1<<17|1<<12|1), id)
}

func TestLayout_IsZero(t *testing.T) {
	assert.True(t, Layout{}.IsZero())
	assert.False(t, DefaultLayout.IsZero())
}
