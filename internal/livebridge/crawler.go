package livebridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/crawler"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/utils/httpclient"
	"BroadcastSync/internal/vision"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// 预告页内嵌状态脚本的固定id；bridgeInfo在其中的固定下钻路径
const bridgeScriptID = "__NEXT_DATA__"

// Crawler 预告页爬取器。与直播爬取相互独立、单独触发，
// 只共用持久化层。流水线每一步的产物都是下一步的必需输入，
// 所以任一步失败整体失败（不产出部分记录）。
type Crawler struct {
	client    *http.Client
	extractor vision.EventExtractor
	cfg       *config.Config
	logger    *logrus.Logger
}

// NewCrawler 创建预告页爬取器
func NewCrawler(client *http.Client, extractor vision.EventExtractor, cfg *config.Config, logger *logrus.Logger) *Crawler {
	return &Crawler{client: client, extractor: extractor, cfg: cfg, logger: logger}
}

// Crawl 预告页全量爬取：HTML → bridgeInfo → 图片组件 →
// 商品分页（MAIN/SUB独立分页）→ 专享券 → 可选视觉提取。
func (c *Crawler) Crawl(ctx context.Context, sourceURL string) (*model.LivebridgeRecord, error) {
	html, err := c.fetchHTML(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("拉取预告页HTML失败: %w", err)
	}

	bridgeInfo, err := c.extractBridgeInfo(html)
	if err != nil {
		return nil, err
	}

	record := &model.LivebridgeRecord{
		URL:       sourceURL,
		Raw:       map[string]any{"bridge_info": bridgeInfo},
		CrawledAt: time.Now(),
	}
	c.fillBasicFields(bridgeInfo, record)
	record.Images = extractImageComponents(bridgeInfo)

	bridgeID := record.BroadcastID
	if bridgeID == nil {
		return nil, fmt.Errorf("bridgeInfo缺少broadcastId，无法调用商品/券接口")
	}

	// MAIN与SUB两种挂载各自独立分页
	for _, attachType := range []string{"MAIN", "SUB"} {
		products, err := c.fetchProducts(ctx, *bridgeID, attachType)
		if err != nil {
			return nil, fmt.Errorf("拉取%s商品失败: %w", attachType, err)
		}
		record.Products = append(record.Products, products...)
	}

	coupons, err := c.fetchSpecialCoupons(ctx, *bridgeID)
	if err != nil {
		return nil, fmt.Errorf("拉取专享券失败: %w", err)
	}
	record.SpecialCoupons = coupons

	// 品牌名兜底链：商品级归属比主播自报身份可靠，先商品后昵称
	if record.BrandName == "" {
		if len(record.Products) > 0 && record.Products[0].BrandName != "" {
			record.BrandName = record.Products[0].BrandName
		} else {
			record.BrandName = record.Nickname
		}
	}

	// 视觉提取可选且不可靠：失败只少字段，不中断
	c.runVision(ctx, record)
	return record, nil
}

// fetchHTML 带重试拉取预告页（3次、指数退避）
func (c *Crawler) fetchHTML(ctx context.Context, sourceURL string) (string, error) {
	headers := map[string]string{}
	if ua := c.cfg.Crawler.UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}
	var body []byte
	policy := httpclient.DefaultPolicy(c.cfg.Crawler.RetryCount)
	err := httpclient.WithRetry(ctx, c.logger, "预告页HTML", policy, func() error {
		var e error
		body, e = httpclient.GetBody(ctx, c.client, sourceURL, headers)
		return e
	})
	return string(body), err
}

// extractBridgeInfo 按脚本id精确定位内嵌状态，再固定路径下钻。
// 脚本缺失立即失败：没有bridgeInfo绝不构建部分记录。
func (c *Crawler) extractBridgeInfo(html string) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析预告页HTML失败: %w", err)
	}
	text := doc.Find("script#" + bridgeScriptID).First().Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("预告页缺少%s脚本", bridgeScriptID)
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(text), &state); err != nil {
		return nil, fmt.Errorf("内嵌状态JSON解析失败: %w", err)
	}
	info, ok := crawler.WalkPath(state, "props", "pageProps", "bridgeInfo").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("内嵌状态中未找到bridgeInfo")
	}
	return info, nil
}

func (c *Crawler) fillBasicFields(info map[string]any, record *model.LivebridgeRecord) {
	if v, ok := info["title"].(string); ok {
		record.Title = v
	}
	if v, ok := info["nickname"].(string); ok {
		record.Nickname = v
	}
	if v, ok := info["brandName"].(string); ok {
		record.BrandName = v
	}
	if v, ok := info["expectedStartDate"].(string); ok {
		record.ExpectedStartDate = v
	}
	if v, ok := info["standByImage"].(string); ok {
		record.StandByImage = v
	}
	if v, ok := info["broadcastId"].(float64); ok && v > 0 {
		id := int64(v)
		record.BroadcastID = &id
	}
	// 直播权益与金额阶梯权益直接挂在bridgeInfo上（有则取）
	if list, ok := info["liveBenefits"].([]any); ok {
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				if msg, _ := m["message"].(string); msg != "" {
					record.LiveBenefits = append(record.LiveBenefits, msg)
				}
			}
		}
	}
	if list, ok := info["benefitsByAmount"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			entry := model.BridgeAmountInfo{}
			if msg, _ := m["message"].(string); msg != "" {
				entry.Message = msg
			}
			if v, ok := m["amount"].(float64); ok {
				amount := int64(v)
				entry.Amount = &amount
			}
			if entry.Message != "" || entry.Amount != nil {
				record.BenefitsByAmount = append(record.BenefitsByAmount, entry)
			}
		}
	}
}

// extractImageComponents 从contentsJson.document.components里
// 筛出@ctype=="image"的组件取其src。contentsJson可能是
// 二次编码的JSON字符串。
func extractImageComponents(info map[string]any) []string {
	raw, ok := info["contentsJson"]
	if !ok {
		return nil
	}
	var contents map[string]any
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &contents); err != nil {
			return nil
		}
	case map[string]any:
		contents = v
	default:
		return nil
	}

	components, ok := crawler.WalkPath(contents, "document", "components").([]any)
	if !ok {
		return nil
	}
	var images []string
	for _, comp := range components {
		m, ok := comp.(map[string]any)
		if !ok {
			continue
		}
		if ctype, _ := m["@ctype"].(string); ctype != "image" {
			continue
		}
		if src, ok := m["src"].(string); ok && src != "" {
			images = append(images, src)
		}
	}
	return images
}

// fetchProducts 单个挂载类型的商品分页：短页或够totalCount即停，
// 页数上限防异常端点死循环
func (c *Crawler) fetchProducts(ctx context.Context, bridgeID int64, attachType string) ([]model.BridgeProductInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/broadcast-bridges/%d/products", crawler.APIBase, bridgeID)
	headers := map[string]string{}
	if ua := c.cfg.Crawler.UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}
	pageSize := c.cfg.Crawler.ProductPageSize
	maxPages := c.cfg.Crawler.ProductMaxPages

	var all []model.BridgeProductAPI
	total := -1
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("attachmentType", attachType)
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(pageSize))

		var resp model.BridgeProductPage
		policy := httpclient.DefaultPolicy(c.cfg.Crawler.RetryCount)
		err := httpclient.WithRetry(ctx, c.logger, "预告页商品分页", policy, func() error {
			return httpclient.GetJSON(ctx, c.client, endpoint, query, headers, &resp)
		})
		if err != nil {
			return nil, err
		}
		if resp.TotalCount > 0 {
			total = resp.TotalCount
		}
		all = append(all, resp.Products...)
		if len(resp.Products) < pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}

	products := make([]model.BridgeProductInfo, 0, len(all))
	for _, it := range all {
		p := model.BridgeProductInfo{
			Name:           it.Name,
			BrandName:      it.BrandName,
			AttachmentType: attachType,
			ImageURL:       it.Image,
			LinkURL:        it.ProductLinkURL,
		}
		if it.Key != "" {
			p.ProductID = it.Key
		} else if it.ProductNo > 0 {
			p.ProductID = strconv.FormatInt(it.ProductNo, 10)
		}
		if it.DiscountRate > 0 {
			rate := it.DiscountRate
			p.DiscountRate = &rate
		}
		if it.DiscountedPrice > 0 {
			price := it.DiscountedPrice
			p.DiscountedPrice = &price
		}
		products = append(products, p)
	}
	return products, nil
}

// fetchSpecialCoupons 专享券单页接口（无分页）
func (c *Crawler) fetchSpecialCoupons(ctx context.Context, bridgeID int64) ([]model.BridgeCouponInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/broadcast-bridges/%d/coupons", crawler.APIBase, bridgeID)
	headers := map[string]string{}
	if ua := c.cfg.Crawler.UserAgent; ua != "" {
		headers["User-Agent"] = ua
	}

	var resp model.BridgeCouponResponse
	policy := httpclient.DefaultPolicy(c.cfg.Crawler.RetryCount)
	err := httpclient.WithRetry(ctx, c.logger, "预告页专享券", policy, func() error {
		return httpclient.GetJSON(ctx, c.client, endpoint, nil, headers, &resp)
	})
	if err != nil {
		return nil, err
	}

	coupons := make([]model.BridgeCouponInfo, 0, len(resp.Coupons))
	for _, it := range resp.Coupons {
		coupons = append(coupons, model.BridgeCouponInfo{
			Title:        it.Title,
			BenefitUnit:  it.BenefitUnit,
			BenefitValue: it.BenefitValue,
		})
	}
	return coupons, nil
}

// runVision 对图片组件跑视觉提取，补充接口里没有的文字类券/权益。
// 产出已是精简投影（只留文本），置信度等内部字段不落库。
func (c *Crawler) runVision(ctx context.Context, record *model.LivebridgeRecord) {
	if c.extractor == nil || len(record.Images) == 0 {
		return
	}
	extraction, err := c.extractor.Extract(ctx, record.Images)
	if err != nil {
		c.logger.WithError(err).Warn("视觉提取失败，跳过图片字段")
		return
	}
	record.SimpleCoupons = append(record.SimpleCoupons, extraction.Coupons...)
	record.LiveBenefits = append(record.LiveBenefits, extraction.Benefits...)
}
