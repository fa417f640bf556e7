package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"BroadcastSync/internal/browser"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

func init() {
	Register(model.KindLive, func(deps *Deps) BroadcastCrawler {
		return &LivesCrawler{
			pool:     deps.Pool,
			dom:      NewDOMScraper(&deps.Cfg.Crawler, deps.Logger),
			comments: NewCommentFetcher(deps.HTTPClient, deps.Cfg.Crawler.UserAgent, deps.Logger),
			client:   deps.HTTPClient,
			deps:     deps,
			logger:   deps.Logger,
		}
	})
}

// LivesCrawler 直播页爬取器。直播页把完整状态内嵌在HTML里，
// 主来源是内嵌JSON；商品不全时先走直连API分页补齐，
// 仍不足自报总数的dom_fallback_ratio比例才转DOM刮取。
type LivesCrawler struct {
	pool     *browser.Pool
	dom      *DOMScraper
	comments *CommentFetcher
	client   *http.Client
	deps     *Deps
	logger   *logrus.Logger
}

func (c *LivesCrawler) Kind() model.BroadcastKind { return model.KindLive }

func (c *LivesCrawler) Crawl(ctx context.Context, sourceURL string, broadcastID int64) (*model.CrawlResult, error) {
	session, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取浏览器会话失败: %w", err)
	}
	defer c.pool.Release(session)

	result := newResult(model.KindLive, sourceURL, model.MethodJSON)
	cfg := &c.deps.Cfg.Crawler

	// 券/权益仍依赖拦截，先挂再导航
	itc := browser.NewInterceptor(time.Duration(cfg.PollIntervalMs)*time.Millisecond, c.logger)
	if err := itc.Attach(session.Context()); err != nil {
		return nil, fmt.Errorf("挂载响应拦截器失败: %w", err)
	}
	if err := session.Navigate(sourceURL); err != nil {
		result.AddWarning("navigation", fmt.Sprintf("导航未正常完成: %v", err), nil)
	}

	html, err := session.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取页面HTML失败: %w", err)
	}
	state := ExtractEmbedded(html)
	var payload *model.BroadcastPayload
	if state != nil {
		payload = decodeStatePayload(state)
	}
	if payload == nil {
		// 内嵌JSON缺失时退回拦截来源
		result.AddWarning("broadcast", "内嵌JSON缺失，转用拦截接口", "API")
		if !itc.WaitRequired(ctx, []string{browser.KeyBroadcast}, time.Duration(cfg.RequiredWaitSec)*time.Second) {
			return nil, fmt.Errorf("内嵌JSON与拦截接口均不可用，无法构建直播记录")
		}
		var p model.BroadcastPayload
		if !itc.GetTyped(browser.KeyBroadcast, &p) {
			return nil, fmt.Errorf("主直播接口载荷解码失败")
		}
		payload = &p
		result.Method = model.MethodHybrid
	}
	if state != nil {
		result.Raw["embedded_state"] = state
	}

	result.Broadcast = mapBroadcastPayload(payload, model.KindLive)
	result.Broadcast.ID = broadcastID
	result.Products = c.reconcileProducts(ctx, session, broadcastID, payload, result)

	collectSecondary(ctx, itc, cfg, result)
	collectChat(ctx, c.comments, cfg, broadcastID, result)
	return result, nil
}

// reconcileProducts 内嵌JSON自报不足时的两级补齐：
// 直连API分页优先（结构化、稳定），分页结果仍低于自报总数的
// dom_fallback_ratio比例才动用DOM。阈值是经验值，见配置。
func (c *LivesCrawler) reconcileProducts(ctx context.Context, page Page, broadcastID int64, payload *model.BroadcastPayload, result *model.CrawlResult) []model.ProductInfo {
	embedded := mapAPIProducts(payload.ShoppingProducts)
	declared := payload.ProductCount
	if declared <= len(embedded) {
		return embedded
	}

	cfg := &c.deps.Cfg.Crawler
	best := embedded

	apiProducts, err := c.fetchProductPages(ctx, broadcastID, declared)
	if err != nil {
		result.AddWarning("products", fmt.Sprintf("商品直连分页失败: %v", err), len(best))
	} else if len(apiProducts) > len(best) {
		result.Method = model.MethodHybrid
		result.AddWarning("products",
			fmt.Sprintf("内嵌JSON不全（自报%d实得%d），API分页补到%d条", declared, len(embedded), len(apiProducts)),
			len(apiProducts))
		best = apiProducts
	}

	if float64(len(best)) >= cfg.DomFallbackRatio*float64(declared) {
		return best
	}

	c.logger.WithFields(logrus.Fields{
		"declared": declared,
		"have":     len(best),
	}).Info("API分页仍不足自报总数阈值，转DOM刮取")
	domProducts, err := c.dom.ScrapeProducts(page)
	if err != nil {
		result.AddWarning("products", fmt.Sprintf("DOM刮取失败: %v", err), len(best))
		return best
	}
	if len(domProducts) > len(best) {
		result.Method = model.MethodHybrid
		result.AddWarning("products",
			fmt.Sprintf("API分页不足（%d/%d），采用DOM结果%d条", len(best), declared, len(domProducts)),
			len(domProducts))
		return domProducts
	}
	result.AddWarning("products",
		fmt.Sprintf("各来源均未达自报总数%d，保留当前最优%d条", declared, len(best)),
		len(best))
	return best
}

// fetchProductPages 直连API按页拉商品：短页或达到totalCount即停
func (c *LivesCrawler) fetchProductPages(ctx context.Context, broadcastID int64, declared int) ([]model.ProductInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/broadcast/%d/products", APIBase, broadcastID)
	headers := map[string]string{}
	if ua := c.deps.Cfg.Crawler.UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}
	pageSize := c.deps.Cfg.Crawler.ProductPageSize
	maxPages := c.deps.Cfg.Crawler.ProductMaxPages

	var all []model.ShoppingProductAPI
	total := declared
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(pageSize))

		var resp model.ProductPage
		if err := httpclient.GetJSON(ctx, c.client, endpoint, query, headers, &resp); err != nil {
			return mapAPIProducts(all), err
		}
		if resp.TotalCount > 0 {
			total = resp.TotalCount
		}
		all = append(all, resp.Products...)
		if len(resp.Products) < pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	return mapAPIProducts(all), nil
}
