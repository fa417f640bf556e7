package browser

import (
	"context"
	"fmt"
	"time"

	"BroadcastSync/internal/config"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Session 单个tab的薄封装。核心只依赖这几个动作：
// goto/evaluate/query/scroll，便于在测试里替换。
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.CrawlerConfig
	logger *logrus.Logger
}

// Context 暴露tab上下文（拦截器attach需要在Navigate之前挂上）
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate 导航到url并等待body就绪
func (s *Session) Navigate(url string) error {
	navCtx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.NavTimeoutSec)*time.Second)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("页面导航失败: %w", err)
	}
	return nil
}

// HTML 取整页渲染后的HTML快照
func (s *Session) HTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("读取页面HTML失败: %w", err)
	}
	return html, nil
}

// Evaluate 在页面内执行js并把结果解码到out
func (s *Session) Evaluate(js string, out any) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(js, out))
}

// Click 点击选择器，短超时，失败不致命（调用方按best-effort处理）
func (s *Session) Click(selector string, timeout time.Duration) error {
	clickCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(clickCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// ScrollBottom 把容器（或窗口）滚到底部
func (s *Session) ScrollBottom(containerSelector string) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) { el.scrollTop = el.scrollHeight; return true; }
		window.scrollTo(0, document.body.scrollHeight);
		return false;
	})()`, containerSelector)
	var scrolled bool
	return s.Evaluate(js, &scrolled)
}

// CountNodes 统计选择器命中的节点数
func (s *Session) CountNodes(selector string) (int, error) {
	var count int
	js := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := s.Evaluate(js, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Sleep 挂起固定时长（懒加载列表滚动间隔用）
func (s *Session) Sleep(d time.Duration) {
	select {
	case <-s.ctx.Done():
	case <-time.After(d):
	}
}
