package resolver

import (
	"context"
	"net"
	"net/netip"
)

// DefaultProbeAddr 出站地址探测的目标，UDP"连接"只选路不发包
const DefaultProbeAddr = "8.8.8.8:80"

// 测试注入点：允许测试替换系统调用以覆盖所有错误分支
var (
	dialContext       = (&net.Dialer{}).DialContext // OutboundIP
	netInterfaceAddrs = net.InterfaceAddrs          // PrivateIP
)

type outboundIPResolver struct {
	probeAddr string
}

// OutboundIP 取本机出站IPv4地址低16位（第三、四字节）并折叠到工作机器ID范围
func OutboundIP(probeAddr string) Resolver {
	if probeAddr == "" {
		probeAddr = DefaultProbeAddr
	}
	return outboundIPResolver{probeAddr: probeAddr}
}

// Resolve 实现Resolver接口
func (r outboundIPResolver) Resolve(ctx context.Context, maxWorkerID int64) (int64, error) {
	conn, err := dialContext(ctx, "udp", r.probeAddr)
	if err != nil {
		return 0, unavailable("outbound ip: %w", err)
	}
	defer func() { _ = conn.Close() }()

	addr, err := netip.ParseAddrPort(conn.LocalAddr().String())
	if err != nil {
		return 0, unavailable("outbound ip: %w", err)
	}
	ip := addr.Addr().Unmap()
	if !ip.Is4() || ip.IsUnspecified() {
		return 0, unavailable("outbound ip: no usable IPv4 address, got %s", ip)
	}
	return ipv4LowBits(ip, maxWorkerID), nil
}

type privateIPResolver struct{}

// PrivateIP 扫描网卡，取第一个私有IPv4地址（RFC1918或链路本地）的低位
//
// 注意：网卡枚举顺序依赖操作系统，多网卡环境下重启后可能选到不同地址。
func PrivateIP() Resolver {
	return privateIPResolver{}
}

// Resolve 实现Resolver接口
func (privateIPResolver) Resolve(_ context.Context, maxWorkerID int64) (int64, error) {
	ip, err := privateIPv4()
	if err != nil {
		return 0, unavailable("private ip: %w", err)
	}
	return ipv4LowBits(ip, maxWorkerID), nil
}

// privateIPv4 获取第一个私有IPv4地址
func privateIPv4() (netip.Addr, error) {
	addrs, err := netInterfaceAddrs()
	if err != nil {
		return netip.Addr{}, err
	}

	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if ip.IsLoopback() || !ip.Is4() {
			continue
		}
		if ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return ip, nil
		}
	}

	return netip.Addr{}, errNoPrivateAddress
}

func ipv4LowBits(ip netip.Addr, maxWorkerID int64) int64 {
	b := ip.As4()
	return lowBits(uint64(b[2])<<8|uint64(b[3]), maxWorkerID)
}
