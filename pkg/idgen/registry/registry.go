package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
)

const (
	// defaultMaxGenerators 默认最大生成器数量
	// 说明：限制注册表中可存储的生成器数量，防止内存泄漏
	defaultMaxGenerators = 100

	// absoluteMaxGenerators 绝对最大生成器数量（硬性上限）
	// 说明：即使通过SetMaxGenerators也不能超过此限制
	absoluteMaxGenerators = 100_000

	// maxKeyLength 键的最大长度
	maxKeyLength = 256
)

// keyFormatRegex 键的合法字符：字母、数字、下划线、连字符、点
var keyFormatRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// pair 生成器在ID中占据的 (datacenter, worker) 位置
type pair struct {
	datacenterID int64
	workerID     int64
}

// Registry 进程内的生成器注册表
//
// 除了按键管理生成器，注册表还保证同一进程内不会有两个生成器
// 使用相同的 (datacenter, worker) 组合。跨进程的唯一性仍需部署方保证。
type Registry struct {
	generators    map[string]core.IGenerator
	pairs         map[pair]string // 组合 -> 占用它的键
	factories     *FactoryRegistry
	maxGenerators int
	logger        *zap.Logger
	mu            sync.RWMutex
}

var (
	// globalRegistry 全局生成器注册表实例（单例）
	globalRegistry *Registry

	// registryOnce 确保注册表只初始化一次
	registryOnce sync.Once
)

// New 创建独立的注册表，logger为nil时使用zap全局logger
func New(logger *zap.Logger) *Registry {
	return &Registry{
		generators:    make(map[string]core.IGenerator),
		pairs:         make(map[pair]string),
		factories:     GetFactoryRegistry(),
		maxGenerators: defaultMaxGenerators,
		logger:        logger,
	}
}

// GetRegistry 获取全局生成器注册表
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = New(nil)
	})
	return globalRegistry
}

func (r *Registry) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return zap.L()
}

// Create 通过工厂创建并注册一个新的生成器
func (r *Registry) Create(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !generatorType.IsValid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[key]; exists {
		return nil, fmt.Errorf("%w: key '%s'", core.ErrGeneratorAlreadyExists, key)
	}
	return r.createLocked(key, generatorType, config)
}

// GetOrCreate 获取生成器，不存在时创建
// 说明：键已存在时直接返回，config被忽略
func (r *Registry) GetOrCreate(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !generatorType.IsValid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if generator, exists := r.generators[key]; exists {
		return generator, nil
	}
	return r.createLocked(key, generatorType, config)
}

// Register 注册一个已构造好的生成器
func (r *Registry) Register(key string, generator core.IGenerator) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if generator == nil {
		return fmt.Errorf("%w: generator cannot be nil", core.ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[key]; exists {
		return fmt.Errorf("%w: key '%s'", core.ErrGeneratorAlreadyExists, key)
	}
	return r.addLocked(key, generator)
}

func (r *Registry) createLocked(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	factory, err := r.factories.Get(generatorType)
	if err != nil {
		return nil, err
	}

	generator, err := factory.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	if err := r.addLocked(key, generator); err != nil {
		return nil, err
	}
	return generator, nil
}

// addLocked 检查容量和组合占用后写入，调用者必须持有写锁
func (r *Registry) addLocked(key string, generator core.IGenerator) error {
	if len(r.generators) >= r.maxGenerators {
		return fmt.Errorf("%w: current %d, max %d",
			core.ErrMaxGeneratorsReached, len(r.generators), r.maxGenerators)
	}

	p := pair{datacenterID: generator.DatacenterID(), workerID: generator.WorkerID()}
	if owner, used := r.pairs[p]; used {
		return fmt.Errorf("%w: datacenter %d, worker %d held by key '%s'",
			core.ErrPairInUse, p.datacenterID, p.workerID, owner)
	}

	r.generators[key] = generator
	r.pairs[p] = key

	r.log().Info("generator registered",
		zap.String("key", key),
		zap.Int64("datacenter_id", p.datacenterID),
		zap.Int64("worker_id", p.workerID))

	return nil
}

// Get 获取已注册的生成器
func (r *Registry) Get(key string) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	generator, exists := r.generators[key]
	if !exists {
		return nil, fmt.Errorf("%w: key '%s'", core.ErrGeneratorNotFound, key)
	}
	return generator, nil
}

// Has 检查生成器是否存在
func (r *Registry) Has(key string) bool {
	if err := validateKey(key); err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.generators[key]
	return exists
}

// Remove 移除生成器并释放其占用的组合
func (r *Registry) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	generator, exists := r.generators[key]
	if !exists {
		return fmt.Errorf("%w: key '%s'", core.ErrGeneratorNotFound, key)
	}

	delete(r.generators, key)
	delete(r.pairs, pair{datacenterID: generator.DatacenterID(), workerID: generator.WorkerID()})

	r.log().Info("generator removed", zap.String("key", key))

	return nil
}

// Clear 清空所有生成器
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generators = make(map[string]core.IGenerator)
	r.pairs = make(map[pair]string)

	r.log().Info("registry cleared")
}

// Count 获取生成器数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.generators)
}

// ListKeys 列出所有生成器的键（已排序）
func (r *Registry) ListKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.generators))
	for key := range r.generators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SetMaxGenerators 设置最大生成器数量
func (r *Registry) SetMaxGenerators(max int) error {
	if max <= 0 {
		return fmt.Errorf("max generators must be positive, got %d", max)
	}
	if max > absoluteMaxGenerators {
		return fmt.Errorf("max generators cannot exceed absolute limit %d, got %d",
			absoluteMaxGenerators, max)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.generators) > max {
		return fmt.Errorf("current generator count %d exceeds new max %d",
			len(r.generators), max)
	}
	r.maxGenerators = max

	r.log().Info("registry capacity changed",
		zap.Int("new_max", max),
		zap.Int("current_count", len(r.generators)))

	return nil
}

// MaxGenerators 获取最大生成器数量
func (r *Registry) MaxGenerators() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.maxGenerators
}

// validateKey 验证键的有效性
func validateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: key cannot be empty", core.ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key too long (max %d), got %d",
			core.ErrInvalidKey, maxKeyLength, len(key))
	}
	if !keyFormatRegex.MatchString(key) {
		return fmt.Errorf("%w: key '%s' contains invalid characters", core.ErrInvalidKey, key)
	}
	return nil
}
