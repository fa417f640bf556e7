package crawler

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage 固定HTML的页面桩
type fakePage struct {
	html       string
	clickErr   error
	countCalls int
}

func (f *fakePage) Navigate(string) error             { return nil }
func (f *fakePage) HTML() (string, error)             { return f.html, nil }
func (f *fakePage) Evaluate(string, any) error        { return nil }
func (f *fakePage) Click(string, time.Duration) error { return f.clickErr }
func (f *fakePage) ScrollBottom(string) error         { return nil }
func (f *fakePage) Sleep(time.Duration)               {}

func (f *fakePage) CountNodes(string) (int, error) {
	f.countCalls++
	return strings.Count(f.html, "ProductList_item"), nil
}

func productListHTML(n int) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := 1; i <= n; i++ {
		b.WriteString(fmt.Sprintf(`<li class="ProductList_item__x3f" data-product-id="%d">
			<a href="https://shopping.naver.com/products/%d"><img src="https://img.example/%d.jpg"/></a>
			<span class="ProductItem_name__ab">商品%d</span>
			<span class="ProductItem_price__cd">1,%d00원</span>
			<em class="ProductItem_discount__ef">15%%</em>
		</li>`, i, i, i, i, i))
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func scrapeTestConfig() *config.CrawlerConfig {
	return &config.CrawlerConfig{
		ScrollMaxAttempts:  5,
		ScrollStableRounds: 2,
		ScrollIntervalMs:   1,
	}
}

func TestScrapeProducts(t *testing.T) {
	page := &fakePage{html: productListHTML(3)}
	d := NewDOMScraper(scrapeTestConfig(), logrus.New())

	products, err := d.ScrapeProducts(page)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "1", products[0].ProductID)
	assert.Equal(t, "商品1", products[0].Name)
	require.NotNil(t, products[0].DiscountedPrice)
	assert.Equal(t, int64(1100), *products[0].DiscountedPrice)
	require.NotNil(t, products[0].DiscountRate)
	assert.Equal(t, float64(15), *products[0].DiscountRate)
}

func TestParseProductsDedupe(t *testing.T) {
	html := productListHTML(2)
	// 重复product_id的条目只留先见者
	html = strings.Replace(html, "</ul>", `<li class="ProductList_item__dup" data-product-id="1">
		<a href="https://shopping.naver.com/products/1-dup"></a>
		<span class="ProductItem_name__ab">重复商品</span>
	</li></ul>`, 1)

	d := NewDOMScraper(scrapeTestConfig(), logrus.New())
	products := d.parseProducts(html)
	require.Len(t, products, 2)
	assert.Equal(t, "商品1", products[0].Name)
}

func TestParseProductsDropsIncomplete(t *testing.T) {
	html := `<html><body>
		<li class="ProductList_item__a"><span class="name">无链接商品</span></li>
		<li class="ProductList_item__b"><a href="https://x.example/1"></a></li>
	</body></html>`
	d := NewDOMScraper(scrapeTestConfig(), logrus.New())
	assert.Empty(t, d.parseProducts(html))
}

func replaysForTest() *ReplaysCrawler {
	return &ReplaysCrawler{
		dom:    NewDOMScraper(scrapeTestConfig(), logrus.New()),
		logger: logrus.New(),
	}
}

func apiPayload(declared, listed int) *model.BroadcastPayload {
	p := &model.BroadcastPayload{ProductCount: declared}
	for i := 1; i <= listed; i++ {
		p.ShoppingProducts = append(p.ShoppingProducts, model.ShoppingProductAPI{
			Key:  fmt.Sprintf("api-%d", i),
			Name: fmt.Sprintf("接口商品%d", i),
		})
	}
	return p
}

func TestReconcileProductsNoFallbackWhenComplete(t *testing.T) {
	c := replaysForTest()
	page := &fakePage{html: productListHTML(10)}
	result := newResult(model.KindReplay, "", model.MethodAPI)

	products := c.reconcileProducts(page, apiPayload(3, 3), result)
	assert.Len(t, products, 3)
	// 自报数没超出，绝不能去碰DOM
	assert.Zero(t, page.countCalls)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, model.MethodAPI, result.Method)
}

func TestReconcileProductsDOMWinsWhenMore(t *testing.T) {
	c := replaysForTest()
	page := &fakePage{html: productListHTML(10)}
	result := newResult(model.KindReplay, "", model.MethodAPI)

	products := c.reconcileProducts(page, apiPayload(10, 3), result)
	assert.Len(t, products, 10)
	assert.Equal(t, model.MethodHybrid, result.Method)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "products", result.Warnings[0].Field)
	assert.NotNil(t, result.Warnings[0].Fallback)
}

func TestReconcileProductsKeepsAPIWhenDOMNotBetter(t *testing.T) {
	c := replaysForTest()
	page := &fakePage{html: productListHTML(2)}
	result := newResult(model.KindReplay, "", model.MethodAPI)

	products := c.reconcileProducts(page, apiPayload(10, 3), result)
	// DOM没拿到严格更多，保留接口结果，但截断必须留警告
	assert.Len(t, products, 3)
	assert.Equal(t, model.MethodAPI, result.Method)
	require.Len(t, result.Warnings, 1)
}
