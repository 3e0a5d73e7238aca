package registry_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/registry"
	"katydid-snowflake/pkg/idgen/resolver"
	"katydid-snowflake/pkg/idgen/snowflake"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(zap.NewNop())
}

// TestRegistry_Create 测试创建生成器
func TestRegistry_Create(t *testing.T) {
	r := newRegistry(t)
	config := &snowflake.Config{DatacenterID: 1, WorkerID: 1}

	t.Run("正常创建", func(t *testing.T) {
		gen, err := r.Create("orders", core.GeneratorTypeSnowflake, config)
		require.NoError(t, err)
		assert.Equal(t, int64(1), gen.WorkerID())
	})

	t.Run("重复键", func(t *testing.T) {
		_, err := r.Create("orders", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 2})
		assert.ErrorIs(t, err, core.ErrGeneratorAlreadyExists)
	})

	t.Run("组合已被占用", func(t *testing.T) {
		_, err := r.Create("payments", core.GeneratorTypeSnowflake, config)
		assert.ErrorIs(t, err, core.ErrPairInUse)
		assert.Contains(t, err.Error(), "orders")
		assert.False(t, r.Has("payments"))
	})

	t.Run("无效类型", func(t *testing.T) {
		_, err := r.Create("x", core.GeneratorType("uuid"), config)
		assert.ErrorIs(t, err, core.ErrInvalidGeneratorType)
	})

	t.Run("无效配置", func(t *testing.T) {
		_, err := r.Create("bad", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 64})
		assert.ErrorIs(t, err, core.ErrInvalidWorkerID)
		assert.False(t, r.Has("bad"))
	})

	t.Run("无效键", func(t *testing.T) {
		for _, key := range []string{"", "has space", "semi;colon", strings.Repeat("k", 257)} {
			_, err := r.Create(key, core.GeneratorTypeSnowflake, config)
			assert.ErrorIs(t, err, core.ErrInvalidKey, "key %q", key)
		}
	})
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := newRegistry(t)

	gen1, err := r.GetOrCreate("users", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 3})
	require.NoError(t, err)

	// 已存在时忽略新配置
	gen2, err := r.GetOrCreate("users", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 4})
	require.NoError(t, err)
	assert.Same(t, gen1, gen2)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_Register(t *testing.T) {
	r := newRegistry(t)

	gen, err := snowflake.New(7, 2)
	require.NoError(t, err)
	require.NoError(t, r.Register("prebuilt", gen))

	got, err := r.Get("prebuilt")
	require.NoError(t, err)
	assert.Same(t, gen, got)

	dup, err := snowflake.New(7, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Register("other", dup), core.ErrPairInUse)
	assert.ErrorIs(t, r.Register("prebuilt", dup), core.ErrGeneratorAlreadyExists)
	assert.ErrorIs(t, r.Register("nil", nil), core.ErrInvalidConfig)
}

func TestRegistry_GetHasRemove(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Create("a", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 1})
	require.NoError(t, err)

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("b"))
	assert.False(t, r.Has(""))

	_, err = r.Get("b")
	assert.ErrorIs(t, err, core.ErrGeneratorNotFound)
	_, err = r.Get("")
	assert.ErrorIs(t, err, core.ErrInvalidKey)

	require.NoError(t, r.Remove("a"))
	assert.ErrorIs(t, r.Remove("a"), core.ErrGeneratorNotFound)

	// 删除后组合被释放
	_, err = r.Create("a2", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 1})
	assert.NoError(t, err)
}

func TestRegistry_ClearCountListKeys(t *testing.T) {
	r := newRegistry(t)
	for i, key := range []string{"c", "a", "b"} {
		_, err := r.Create(key, core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: int64(i)})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []string{"a", "b", "c"}, r.ListKeys())

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.ListKeys())

	_, err := r.Create("a", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 0})
	assert.NoError(t, err)
}

// TestRegistry_MaxGenerators 测试容量限制
func TestRegistry_MaxGenerators(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, 100, r.MaxGenerators())

	require.NoError(t, r.SetMaxGenerators(2))
	assert.Equal(t, 2, r.MaxGenerators())

	assert.Error(t, r.SetMaxGenerators(0))
	assert.Error(t, r.SetMaxGenerators(-1))
	assert.Error(t, r.SetMaxGenerators(100_001))

	for i := 0; i < 2; i++ {
		_, err := r.Create(fmt.Sprintf("g%d", i), core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: int64(i)})
		require.NoError(t, err)
	}
	_, err := r.Create("g2", core.GeneratorTypeSnowflake, &snowflake.Config{WorkerID: 2})
	assert.ErrorIs(t, err, core.ErrMaxGeneratorsReached)

	assert.Error(t, r.SetMaxGenerators(1), "cannot shrink below current count")
}

// TestRegistry_Concurrent 并发创建同一组合，只有一个成功
func TestRegistry_Concurrent(t *testing.T) {
	r := newRegistry(t)

	const callers = 32
	var (
		mu        sync.Mutex
		succeeded int
		inUse     int
	)
	var eg errgroup.Group
	for i := 0; i < callers; i++ {
		key := fmt.Sprintf("k%d", i)
		eg.Go(func() error {
			_, err := r.Create(key, core.GeneratorTypeSnowflake, &snowflake.Config{DatacenterID: 9, WorkerID: 9})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, core.ErrPairInUse):
				inUse++
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, inUse)
	assert.Equal(t, 1, r.Count())
}

func TestFactoryRegistry(t *testing.T) {
	fr := registry.GetFactoryRegistry()

	assert.True(t, fr.Has(core.GeneratorTypeSnowflake))
	assert.Equal(t, []core.GeneratorType{core.GeneratorTypeSnowflake}, fr.List())

	f, err := fr.Get(core.GeneratorTypeSnowflake)
	require.NoError(t, err)
	assert.NotNil(t, f)

	_, err = fr.Get(core.GeneratorType("uuid"))
	assert.ErrorIs(t, err, core.ErrFactoryNotFound)

	assert.ErrorIs(t, fr.Register(core.GeneratorType("uuid"), snowflake.NewFactory()), core.ErrInvalidGeneratorType)
	assert.ErrorIs(t, fr.Register(core.GeneratorTypeSnowflake, nil), core.ErrInvalidConfig)
}

func TestGetOrCreateDefaultGenerator(t *testing.T) {
	reg := registry.GetRegistry()
	t.Cleanup(reg.Clear)

	ctx := context.Background()
	gen, err := registry.GetOrCreateDefaultGenerator(ctx, 4, resolver.Static(11))
	require.NoError(t, err)
	assert.Equal(t, int64(11), gen.WorkerID())
	assert.Equal(t, int64(4), gen.DatacenterID())

	// 再次调用返回同一实例，不再解析
	again, err := registry.GetOrCreateDefaultGenerator(ctx, 0, resolver.Static(99))
	require.NoError(t, err)
	assert.Same(t, gen, again)

	id, err := gen.NextID()
	require.NoError(t, err)
	info, err := gen.ParseID(id)
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.WorkerID)
}

func TestGetOrCreateDefaultGenerator_ResolverFails(t *testing.T) {
	reg := registry.GetRegistry()
	t.Cleanup(reg.Clear)
	reg.Clear()

	_, err := registry.GetOrCreateDefaultGenerator(context.Background(), 0, resolver.Static(-1))
	assert.ErrorIs(t, err, core.ErrWorkerIDUnavailable)
	assert.False(t, reg.Has(registry.DefaultGeneratorKey))
}
