// Package app 把配置、解析器、生成器和HTTP服务组装成可运行的 idgend 进程
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"katydid-snowflake/internal/httpapi"
	"katydid-snowflake/pkg/config"
	"katydid-snowflake/pkg/idgen/registry"
	"katydid-snowflake/pkg/idgen/snowflake"
)

// App idgend 进程
type App struct {
	cfg    *config.AppConfig
	logger *zap.Logger

	gen    *snowflake.Generator
	owner  *snowflake.Owner
	server *http.Server

	ready chan struct{}
	addr  net.Addr
}

// New 解析工作机器ID并创建生成器，失败时不会留下打开的资源
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*App, error) {
	r, closeResolver, err := BuildResolver(cfg.IDGen.Resolver, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeResolver() }()

	resolveCtx, cancel := context.WithTimeout(ctx, cfg.IDGen.Resolver.Timeout)
	defer cancel()

	gen, err := snowflake.NewFromEnvironmentWithConfig(resolveCtx, &snowflake.Config{
		Layout:        cfg.IDGen.Layout,
		DatacenterID:  cfg.IDGen.DatacenterID,
		Logger:        logger,
		EnableMetrics: cfg.IDGen.EnableMetrics,
	}, r)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	// 同进程内的其他组件通过全局注册表拿到同一个生成器
	if err := registry.GetRegistry().Register(registry.DefaultGeneratorKey, gen); err != nil {
		return nil, fmt.Errorf("register generator: %w", err)
	}

	owner := snowflake.NewOwner(gen, cfg.IDGen.QueueSize)
	handler := httpapi.NewHandler(owner, gen, cfg.Server.MaxBatch, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		gen:    gen,
		owner:  owner,
		server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      httpapi.NewRouter(handler, cfg.Server.Mode),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		ready: make(chan struct{}),
	}, nil
}

// Generator 返回进程使用的生成器
func (a *App) Generator() *snowflake.Generator {
	return a.gen
}

// Ready 监听成功后关闭
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr 实际监听地址，Ready之前为nil
func (a *App) Addr() net.Addr {
	return a.addr
}

// Run 启动HTTP服务，ctx取消后优雅退出
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	a.addr = ln.Addr()
	close(a.ready)

	a.logger.Info("idgend listening",
		zap.String("addr", a.addr.String()),
		zap.Int64("datacenter_id", a.gen.DatacenterID()),
		zap.Int64("worker_id", a.gen.WorkerID()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		a.logger.Info("idgend shutting down")
		err := a.server.Shutdown(shutdownCtx)
		a.owner.Close()
		return err
	})

	return g.Wait()
}

// Close 释放资源（Run 未调用时使用）
func (a *App) Close() {
	a.owner.Close()
	_ = registry.GetRegistry().Remove(registry.DefaultGeneratorKey)
}
