package app

import (
	"context"
	"errors"

	"github.com/velora-shop/internal/config"
	"github.com/velora-shop/internal/notify"
	"github.com/velora-shop/internal/provider"
	"github.com/velora-shop/internal/router"
	"github.com/velora-shop/internal/worker"

	"gorm.io/gorm"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, db *gorm.DB, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}

	container := provider.NewContainer(cfg, db)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
		// Redis 未启用时订阅协程自行退出，WebSocket 推送退化为仅本进程
		services = append(services, newNotifySubscriberService(container.Hub))
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.DB, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

// notifySubscriberService 将 Redis 通知订阅挂载为可托管服务
type notifySubscriberService struct {
	hub    *notify.Hub
	cancel context.CancelFunc
}

func newNotifySubscriberService(hub *notify.Hub) *notifySubscriberService {
	return &notifySubscriberService{hub: hub}
}

func (s *notifySubscriberService) Name() string {
	return "notify-subscriber"
}

func (s *notifySubscriberService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	notify.RunSubscriber(ctx, s.hub)
	<-ctx.Done()
	return nil
}

func (s *notifySubscriberService) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
