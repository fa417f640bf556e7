package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"BroadcastSync/internal/browser"
	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
)

// CrawlerVersion 写入crawl_metadata的版本号
const CrawlerVersion = "2.1.0"

// BroadcastCrawler 各直播类型爬取器的统一接口
type BroadcastCrawler interface {
	Kind() model.BroadcastKind
	Crawl(ctx context.Context, sourceURL string, broadcastID int64) (*model.CrawlResult, error)
}

// Deps 爬取器共享依赖（进程启动时构造一次，显式注入，无全局状态）
type Deps struct {
	Pool       *browser.Pool
	HTTPClient *http.Client
	Cfg        *config.Config
	Logger     *logrus.Logger
}

// Factory 爬取器工厂函数签名
type Factory func(deps *Deps) BroadcastCrawler

// ========== 类型→工厂注册表（各类型init注册） ==========
var factoryRegistry = make(map[model.BroadcastKind]Factory)

// Register 供各爬取器init函数调用注册工厂
func Register(kind model.BroadcastKind, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("类型%s的工厂函数不能为nil", kind))
	}
	factoryRegistry[kind] = factory
}

// Registry 已初始化的爬取器实例集合
type Registry struct {
	crawlers map[model.BroadcastKind]BroadcastCrawler
	logger   *logrus.Logger
}

// NewRegistry 按注册表初始化全部爬取器实例
func NewRegistry(deps *Deps) *Registry {
	r := &Registry{
		crawlers: make(map[model.BroadcastKind]BroadcastCrawler),
		logger:   deps.Logger,
	}
	for kind, factory := range factoryRegistry {
		ins := factory(deps)
		if ins == nil {
			deps.Logger.WithField("kind", kind).Error("工厂函数返回nil爬取器")
			continue
		}
		r.crawlers[kind] = ins
		deps.Logger.WithField("kind", kind).Info("爬取器初始化成功")
	}
	return r
}

// Get 取指定类型的爬取器实例
func (r *Registry) Get(kind model.BroadcastKind) (BroadcastCrawler, error) {
	c, ok := r.crawlers[kind]
	if !ok {
		return nil, fmt.Errorf("类型%s未注册爬取器", kind)
	}
	return c, nil
}

// ========== 各类型共用的载荷映射与次要数据收集 ==========

// mapBroadcastPayload 主接口载荷 → 规范化直播字段
func mapBroadcastPayload(p *model.BroadcastPayload, kind model.BroadcastKind) model.BroadcastInfo {
	brand := p.BrandName
	if brand == "" {
		brand = p.Nickname
	}
	return model.BroadcastInfo{
		ID:                p.ID,
		Title:             p.Title,
		BrandName:         brand,
		Description:       p.Description,
		Status:            p.Status,
		StandByImage:      p.StandByImage,
		BroadcastDate:     p.BroadcastDate,
		BroadcastEndDate:  p.BroadcastEndDate,
		ExpectedStartDate: p.ExpectedStartDate,
		ProductCount:      p.ProductCount,
	}
}

// mapAPIProducts 接口商品列表 → 规范化商品字段
func mapAPIProducts(items []model.ShoppingProductAPI) []model.ProductInfo {
	products := make([]model.ProductInfo, 0, len(items))
	for _, it := range items {
		p := model.ProductInfo{
			Name:        it.Name,
			BrandName:   it.BrandName,
			ImageURL:    it.Image,
			LinkURL:     it.ProductLinkURL,
			Stock:       it.StockQuantity,
			ReviewCount: it.ReviewCount,
			DeliveryFee: it.DeliveryFee,
		}
		if it.Key != "" {
			p.ProductID = it.Key
		} else if it.ProductNo > 0 {
			p.ProductID = fmt.Sprintf("%d", it.ProductNo)
		}
		if it.DiscountRate > 0 {
			rate := it.DiscountRate
			p.DiscountRate = &rate
		}
		if it.DiscountedPrice > 0 {
			price := it.DiscountedPrice
			p.DiscountedPrice = &price
		}
		if it.Price > 0 {
			orig := it.Price
			p.OriginalPrice = &orig
		}
		products = append(products, p)
	}
	return products
}

// decodeStatePayload 内嵌状态JSON → 主接口同构载荷。
// 已知的两种挂载路径依次尝试。
func decodeStatePayload(state map[string]any) *model.BroadcastPayload {
	candidates := []any{
		WalkPath(state, "broadcast"),
		WalkPath(state, "props", "pageProps", "initialState", "broadcast"),
	}
	for _, c := range candidates {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		raw, err := json.Marshal(m)
		if err != nil {
			continue
		}
		var p model.BroadcastPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		if p.ID > 0 || p.Title != "" {
			return &p
		}
	}
	return nil
}

// collectSecondary 从拦截器收优惠券/文字权益。只有拦截这一个来源，
// 缺失记警告而非报错——很多直播本来就没有券和权益。
func collectSecondary(ctx context.Context, itc *browser.Interceptor, cfg *config.CrawlerConfig, result *model.CrawlResult) {
	maxWait := time.Duration(cfg.OptionalWaitSec) * time.Second
	minWait := time.Duration(cfg.OptionalMinWaitSec) * time.Second
	got := itc.WaitOptional(ctx, []string{browser.KeyCoupons, browser.KeyBenefits}, maxWait, minWait)

	captured := make(map[string]bool, len(got))
	for _, k := range got {
		captured[k] = true
	}

	if captured[browser.KeyCoupons] {
		var payload model.CouponPayload
		if itc.GetTyped(browser.KeyCoupons, &payload) {
			for _, c := range payload.Coupons {
				result.Coupons = append(result.Coupons, model.CouponInfo{
					Title:             c.Title,
					BenefitType:       c.BenefitType,
					BenefitUnit:       normalizeBenefitUnit(c.BenefitUnit),
					BenefitValue:      c.BenefitValue,
					MinOrderAmount:    c.MinOrderAmount,
					MaxDiscountAmount: c.MaxDiscountAmount,
					ValidStart:        c.ValidStartDate,
					ValidEnd:          c.ValidEndDate,
				})
			}
		}
	} else {
		result.AddWarning("coupons", "未拦截到优惠券接口响应", nil)
	}

	if captured[browser.KeyBenefits] {
		var payload model.BenefitPayload
		if itc.GetTyped(browser.KeyBenefits, &payload) {
			for _, b := range payload.Benefits {
				result.Benefits = append(result.Benefits, model.BenefitInfo{
					BenefitID:   b.ID,
					Message:     b.Message,
					Detail:      b.Detail,
					BenefitType: b.BenefitType,
				})
			}
		}
	} else {
		result.AddWarning("benefits", "未拦截到权益接口响应", nil)
	}
}

// collectChat 直连分页拉评论并按配置策略抽样。与主数据来源无关，
// 失败降级为警告。
func collectChat(ctx context.Context, fetcher *CommentFetcher, cfg *config.CrawlerConfig, broadcastID int64, result *model.CrawlResult) {
	comments, err := fetcher.FetchAll(ctx, broadcastID, cfg.CommentPageSize, cfg.CommentMaxPages)
	if err != nil {
		result.AddWarning("chat", fmt.Sprintf("评论拉取失败: %v", err), len(comments))
	}
	result.Chat = SampleComments(comments, SamplingStrategy(cfg.ChatSampling))
}

func normalizeBenefitUnit(unit string) string {
	switch unit {
	case "PERCENT", "percent":
		return "percent"
	case "FIXED", "fixed", "WON":
		return "fixed"
	default:
		return unit
	}
}

// newResult 初始化爬取产物骨架
func newResult(kind model.BroadcastKind, sourceURL string, method model.ExtractionMethod) *model.CrawlResult {
	return &model.CrawlResult{
		Kind:      kind,
		SourceURL: sourceURL,
		Method:    method,
		Raw:       make(map[string]any),
		CrawledAt: time.Now(),
	}
}
