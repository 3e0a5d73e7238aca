package resolver

import (
	"context"
	"hash/fnv"
	"os"
)

// osHostname 测试注入点
var osHostname = os.Hostname

type hostnameResolver struct{}

// Hostname 对主机名做FNV-1a哈希后取低位
//
// 注意：哈希存在碰撞风险，节点较多时应通过环境变量显式分配。
func Hostname() Resolver {
	return hostnameResolver{}
}

// Resolve 实现Resolver接口
func (hostnameResolver) Resolve(_ context.Context, maxWorkerID int64) (int64, error) {
	name, err := osHostname()
	if err != nil {
		return 0, unavailable("hostname: %w", err)
	}
	if name == "" {
		return 0, unavailable("hostname: empty host name")
	}
	return lowBits(hashString(name), maxWorkerID), nil
}

func hashString(s string) uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s)) // hash.Hash.Write never returns error
	return uint64(h.Sum32())
}
