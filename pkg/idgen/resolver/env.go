package resolver

import (
	"context"
	"os"
	"strconv"
	"strings"
)

// EnvWorkerID 直接指定工作机器ID的环境变量
const EnvWorkerID = "IDGEN_WORKER_ID"

// lookupEnv 测试注入点
var lookupEnv = os.LookupEnv

type envResolver struct {
	name string
}

// Env 从环境变量读取十进制工作机器ID，变量未设置或非法时返回错误
func Env(name string) Resolver {
	return envResolver{name: name}
}

// Resolve 实现Resolver接口
func (e envResolver) Resolve(_ context.Context, maxWorkerID int64) (int64, error) {
	raw, ok := lookupEnv(e.name)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, unavailable("env: %s is not set", e.name)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, unavailable("env: invalid %s value %q: %w", e.name, raw, err)
	}
	return checkRange("env "+e.name, id, maxWorkerID)
}
