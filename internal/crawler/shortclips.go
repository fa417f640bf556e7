package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BroadcastSync/internal/browser"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
)

// shortclipGlobalJS 短视频页的全局状态变量。直接evaluate取值最可靠，
// 绕开HTML序列化的转义问题。
const shortclipGlobalJS = `(() => {
	const s = window.__SHORTCLIP_STATE__ || (window.__PRELOADED_STATE__ && window.__PRELOADED_STATE__.shortclip);
	return s ? JSON.stringify(s) : "";
})()`

func init() {
	Register(model.KindShortClip, func(deps *Deps) BroadcastCrawler {
		return &ShortClipsCrawler{
			pool:     deps.Pool,
			comments: NewCommentFetcher(deps.HTTPClient, deps.Cfg.Crawler.UserAgent, deps.Logger),
			deps:     deps,
			logger:   deps.Logger,
		}
	})
}

// ShortClipsCrawler 短视频页爬取器。三级兜底：
// 页面全局变量 → 原始HTML解析 → 带拦截重载读短视频接口。
// 上一级取到任何东西就不试下一级。
type ShortClipsCrawler struct {
	pool     *browser.Pool
	comments *CommentFetcher
	deps     *Deps
	logger   *logrus.Logger
}

func (c *ShortClipsCrawler) Kind() model.BroadcastKind { return model.KindShortClip }

func (c *ShortClipsCrawler) Crawl(ctx context.Context, sourceURL string, broadcastID int64) (*model.CrawlResult, error) {
	session, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取浏览器会话失败: %w", err)
	}
	defer c.pool.Release(session)

	result := newResult(model.KindShortClip, sourceURL, model.MethodJSON)
	cfg := &c.deps.Cfg.Crawler

	// 拦截器必须先挂再导航：优惠券/权益只能靠拦截拿到，
	// 首屏请求丢了就补不回来
	itc := browser.NewInterceptor(time.Duration(cfg.PollIntervalMs)*time.Millisecond, c.logger)
	if err := itc.Attach(session.Context()); err != nil {
		return nil, fmt.Errorf("挂载响应拦截器失败: %w", err)
	}
	if err := session.Navigate(sourceURL); err != nil {
		result.AddWarning("navigation", fmt.Sprintf("导航未正常完成: %v", err), nil)
	}

	// 第一级：页面全局变量
	payload := c.extractFromGlobal(session)

	// 第二级：原始HTML里的内嵌状态
	if payload == nil {
		result.AddWarning("shortclip", "页面全局变量缺失，改从HTML解析", "HTML")
		payload = c.extractFromHTML(session)
	}

	// 第三级：带拦截重载，读短视频接口
	if payload == nil {
		result.AddWarning("shortclip", "HTML解析无结果，重载读接口", "API")
		result.Method = model.MethodHybrid
		payload = c.extractFromAPI(ctx, session, itc, sourceURL, result)
	}
	if payload == nil {
		return nil, fmt.Errorf("短视频三级来源（全局变量/HTML/接口）均无数据")
	}

	brand := payload.BrandName
	if brand == "" {
		brand = payload.Nickname
	}
	result.Broadcast = model.BroadcastInfo{
		ID:            broadcastID,
		Title:         payload.Title,
		BrandName:     brand,
		Description:   payload.Description,
		Status:        payload.Status,
		StandByImage:  payload.StandByImage,
		BroadcastDate: payload.BroadcastDate,
		ProductCount:  len(payload.ShoppingProducts),
	}
	result.Products = mapAPIProducts(payload.ShoppingProducts)
	result.Raw["shortclip"] = payload

	collectSecondary(ctx, itc, cfg, result)
	collectChat(ctx, c.comments, cfg, broadcastID, result)
	return result, nil
}

func (c *ShortClipsCrawler) extractFromGlobal(session Page) *model.ShortclipPayload {
	var raw string
	if err := session.Evaluate(shortclipGlobalJS, &raw); err != nil || raw == "" {
		return nil
	}
	var payload model.ShortclipPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	if payload.ID == 0 && payload.Title == "" {
		return nil
	}
	return &payload
}

func (c *ShortClipsCrawler) extractFromHTML(session Page) *model.ShortclipPayload {
	html, err := session.HTML()
	if err != nil {
		return nil
	}
	state := ExtractEmbedded(html)
	if state == nil {
		return nil
	}
	candidates := []any{
		WalkPath(state, "shortclip"),
		WalkPath(state, "props", "pageProps", "shortclip"),
	}
	for _, cand := range candidates {
		m, ok := cand.(map[string]any)
		if !ok {
			continue
		}
		raw, err := json.Marshal(m)
		if err != nil {
			continue
		}
		var payload model.ShortclipPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}
		if payload.ID > 0 || payload.Title != "" {
			return &payload
		}
	}
	return nil
}

// extractFromAPI 第三级：重载页面重触发请求，等短视频接口落地。
// 拦截器在Crawl入口已挂好，这里只负责重载和等待。
func (c *ShortClipsCrawler) extractFromAPI(ctx context.Context, session *browser.Session, itc *browser.Interceptor, sourceURL string, result *model.CrawlResult) *model.ShortclipPayload {
	cfg := &c.deps.Cfg.Crawler
	if err := session.Navigate(sourceURL); err != nil {
		c.logger.WithError(err).Warn("短视频重载导航未正常完成")
	}
	if !itc.WaitRequired(ctx, []string{browser.KeyShortclip}, time.Duration(cfg.RequiredWaitSec)*time.Second) {
		return nil // 第三级也空手而归，由调用方给最终错误
	}
	var payload model.ShortclipPayload
	if !itc.GetTyped(browser.KeyShortclip, &payload) {
		return nil
	}
	if raw, ok := itc.Get(browser.KeyShortclip); ok {
		result.Raw["shortclip_api"] = raw
	}
	return &payload
}
