package crawler

import (
	"context"
	"fmt"
	"time"

	"BroadcastSync/internal/browser"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
)

func init() {
	Register(model.KindReplay, func(deps *Deps) BroadcastCrawler {
		return &ReplaysCrawler{
			pool:     deps.Pool,
			dom:      NewDOMScraper(&deps.Cfg.Crawler, deps.Logger),
			comments: NewCommentFetcher(deps.HTTPClient, deps.Cfg.Crawler.UserAgent, deps.Logger),
			deps:     deps,
			logger:   deps.Logger,
		}
	})
}

// ReplaysCrawler 回放页爬取器。主数据来源是API拦截：回放接口
// 已知会按固定分页截断商品列表，而DOM渲染的是真实总量，
// 所以自报数对不上时转DOM刮取，DOM严格更多才采用。
type ReplaysCrawler struct {
	pool     *browser.Pool
	dom      *DOMScraper
	comments *CommentFetcher
	deps     *Deps
	logger   *logrus.Logger
}

func (c *ReplaysCrawler) Kind() model.BroadcastKind { return model.KindReplay }

func (c *ReplaysCrawler) Crawl(ctx context.Context, sourceURL string, broadcastID int64) (*model.CrawlResult, error) {
	session, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取浏览器会话失败: %w", err)
	}
	defer c.pool.Release(session)

	result := newResult(model.KindReplay, sourceURL, model.MethodAPI)
	cfg := &c.deps.Cfg.Crawler

	// 拦截器必须先挂再导航，否则丢早期响应
	itc := browser.NewInterceptor(time.Duration(cfg.PollIntervalMs)*time.Millisecond, c.logger)
	if err := itc.Attach(session.Context()); err != nil {
		return nil, fmt.Errorf("挂载响应拦截器失败: %w", err)
	}
	if err := session.Navigate(sourceURL); err != nil {
		// 导航超时不立即放弃：需要的响应可能已经落地
		result.AddWarning("navigation", fmt.Sprintf("导航未正常完成: %v", err), nil)
	}

	// 回放path里这一步是唯一的致命等待：没有主接口就没有直播记录
	if !itc.WaitRequired(ctx, []string{browser.KeyBroadcast}, time.Duration(cfg.RequiredWaitSec)*time.Second) {
		return nil, fmt.Errorf("等待主直播接口超时（%ds），无法构建直播记录", cfg.RequiredWaitSec)
	}

	var payload model.BroadcastPayload
	if !itc.GetTyped(browser.KeyBroadcast, &payload) {
		return nil, fmt.Errorf("主直播接口载荷解码失败")
	}
	if raw, ok := itc.Get(browser.KeyBroadcast); ok {
		result.Raw["broadcast"] = raw
	}

	result.Broadcast = mapBroadcastPayload(&payload, model.KindReplay)
	result.Broadcast.ID = broadcastID
	result.Products = c.reconcileProducts(session, &payload, result)

	collectSecondary(ctx, itc, cfg, result)
	collectChat(ctx, c.comments, cfg, broadcastID, result)
	return result, nil
}

// reconcileProducts 自报总数超过接口列表长度时触发DOM刮取，
// DOM数量严格更多才替换。任何截断/兜底都必须留警告，
// 不允许悄悄保留不完整列表。
func (c *ReplaysCrawler) reconcileProducts(page Page, payload *model.BroadcastPayload, result *model.CrawlResult) []model.ProductInfo {
	apiProducts := mapAPIProducts(payload.ShoppingProducts)
	if payload.ProductCount <= len(apiProducts) {
		return apiProducts
	}

	c.logger.WithFields(logrus.Fields{
		"declared": payload.ProductCount,
		"api":      len(apiProducts),
	}).Info("接口商品数少于自报总数，转DOM刮取")

	domProducts, err := c.dom.ScrapeProducts(page)
	if err != nil {
		result.AddWarning("products",
			fmt.Sprintf("接口截断（自报%d实得%d）且DOM刮取失败: %v", payload.ProductCount, len(apiProducts), err),
			len(apiProducts))
		return apiProducts
	}
	if len(domProducts) > len(apiProducts) {
		result.Method = model.MethodHybrid
		result.AddWarning("products",
			fmt.Sprintf("接口截断（自报%d实得%d），采用DOM结果%d条", payload.ProductCount, len(apiProducts), len(domProducts)),
			len(domProducts))
		return domProducts
	}
	result.AddWarning("products",
		fmt.Sprintf("接口截断（自报%d实得%d），DOM未取得更多（%d条），保留接口结果", payload.ProductCount, len(apiProducts), len(domProducts)),
		len(apiProducts))
	return apiProducts
}
