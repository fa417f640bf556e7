package crawler

import (
	"strconv"
	"strings"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Page 爬取器依赖的浏览器页面能力子集（*browser.Session实现）
type Page interface {
	Navigate(url string) error
	HTML() (string, error)
	Evaluate(js string, out any) error
	Click(selector string, timeout time.Duration) error
	ScrollBottom(containerSelector string) error
	CountNodes(selector string) (int, error)
	Sleep(d time.Duration)
}

// 商品面板的候选触发选择器，按优先级尝试；全失败也继续（best-effort）
var productTabTriggers = []string{
	`button[class*="ProductLayer_button"]`,
	`a[class*="Product_link_more"]`,
	`button[class*="tab_product"]`,
}

// 商品列表的结构化选择器（类名子串匹配，站点混淆后缀随版本变化）
const (
	productItemSelector  = `li[class*="ProductList_item"], div[class*="ProductItem_wrap"]`
	productListContainer = `div[class*="ProductList_list"], div[class*="ProductLayer_content"]`
)

// DOMScraper 渲染后DOM的商品刮取器。接口截断、内嵌JSON不全时的
// 最后一道数据来源。
type DOMScraper struct {
	cfg    *config.CrawlerConfig
	logger *logrus.Logger
}

// NewDOMScraper 创建DOM刮取器
func NewDOMScraper(cfg *config.CrawlerConfig, logger *logrus.Logger) *DOMScraper {
	return &DOMScraper{cfg: cfg, logger: logger}
}

// ScrapeProducts 滚动懒加载列表到穷尽后刮取全部商品。
// 列表是虚拟化渲染、服务端不给总数，只能以“连续N轮数量不变”判终。
func (d *DOMScraper) ScrapeProducts(page Page) ([]model.ProductInfo, error) {
	d.openProductPanel(page)

	interval := time.Duration(d.cfg.ScrollIntervalMs) * time.Millisecond
	stable := 0
	lastCount := -1
	for attempt := 0; attempt < d.cfg.ScrollMaxAttempts; attempt++ {
		if err := page.ScrollBottom(productListContainer); err != nil {
			d.logger.WithError(err).Debug("滚动失败")
		}
		page.Sleep(interval)

		count, err := page.CountNodes(productItemSelector)
		if err != nil {
			d.logger.WithError(err).Debug("统计商品节点失败")
			continue
		}
		if count == lastCount {
			stable++
			if stable >= d.cfg.ScrollStableRounds {
				break
			}
		} else {
			stable = 0
			lastCount = count
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	return d.parseProducts(html), nil
}

// openProductPanel 依次尝试候选触发器打开商品面板；全失败不致命
func (d *DOMScraper) openProductPanel(page Page) {
	for _, sel := range productTabTriggers {
		if err := page.Click(sel, 2*time.Second); err == nil {
			page.Sleep(500 * time.Millisecond)
			return
		}
	}
	d.logger.Debug("商品面板触发器均未命中，按当前可见内容刮取")
}

// parseProducts 纯结构化抽取：类名子串定位，数字字段剥非数字字符。
// 缺名字或链接的条目直接丢弃；按product_id（缺省时按链接）去重，先见者留
func (d *DOMScraper) parseProducts(html string) []model.ProductInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		d.logger.WithError(err).Warn("解析商品HTML失败")
		return nil
	}

	var products []model.ProductInfo
	seen := make(map[string]bool)

	doc.Find(productItemSelector).Each(func(_ int, s *goquery.Selection) {
		p := parseProductItem(s)
		if p.Name == "" || p.LinkURL == "" {
			return
		}
		key := p.ProductID
		if key == "" {
			key = p.LinkURL
		}
		if seen[key] {
			return
		}
		seen[key] = true
		products = append(products, p)
	})

	return products
}

func parseProductItem(s *goquery.Selection) model.ProductInfo {
	var p model.ProductInfo

	p.Name = strings.TrimSpace(s.Find(`[class*="name"]`).First().Text())
	p.BrandName = strings.TrimSpace(s.Find(`[class*="brand"]`).First().Text())

	link := s.Find("a").First()
	if href, ok := link.Attr("href"); ok {
		p.LinkURL = href
	}
	if img, ok := s.Find("img").First().Attr("src"); ok {
		p.ImageURL = img
	}
	if id, ok := s.Attr("data-product-id"); ok {
		p.ProductID = id
	} else if id, ok := link.Attr("data-product-no"); ok {
		p.ProductID = id
	}

	if v, ok := parseDigits(s.Find(`[class*="price"]`).First().Text()); ok {
		p.DiscountedPrice = &v
	}
	if v, ok := parseDigits(s.Find(`[class*="discount"]`).First().Text()); ok {
		rate := float64(v)
		if rate >= 0 && rate <= 100 {
			p.DiscountRate = &rate
		}
	}
	return p
}

// parseDigits 剥掉文本里所有非数字字符后解析（"1,234원" → 1234）
func parseDigits(text string) (int64, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
