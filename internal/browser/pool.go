package browser

import (
	"context"
	"fmt"

	"BroadcastSync/internal/config"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Pool 浏览器上下文池。浏览器进程全局唯一（启动开销大），
// 每次Acquire在其上新开一个tab上下文，用完即销毁。
// 同一tab绝不会被两个并发爬取同时持有，容量由信号量保证。
type Pool struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	sem         chan struct{}
	cfg         *config.Config
	logger      *logrus.Logger
}

// NewPool 创建浏览器池（headless开关与池大小来自配置）
func NewPool(cfg *config.Config, logger *logrus.Logger) *Pool {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.Crawler.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Crawler.UserAgent))
	}
	if cfg.Crawler.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Crawler.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Pool{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sem:         make(chan struct{}, cfg.Browser.PoolSize),
		cfg:         cfg,
		logger:      logger,
	}
}

// Acquire 占用一个池位并返回新tab会话；池满时阻塞直到有空位或ctx取消
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tabCtx, tabCancel := chromedp.NewContext(p.allocCtx)
	// 预热：确保浏览器进程已起，失败时立即归还池位
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		<-p.sem
		return nil, fmt.Errorf("创建浏览器tab失败: %w", err)
	}
	return &Session{
		ctx:    tabCtx,
		cancel: tabCancel,
		cfg:    &p.cfg.Crawler,
		logger: p.logger,
	}, nil
}

// Release 归还会话：清cookie防止跨爬取串号（清理失败只告警），再销毁tab
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}
	if err := chromedp.Run(s.ctx, network.ClearBrowserCookies()); err != nil {
		p.logger.WithError(err).Warn("清理cookie失败")
	}
	s.cancel()
	<-p.sem
}

// Shutdown 关闭浏览器进程
func (p *Pool) Shutdown() {
	p.allocCancel()
}
