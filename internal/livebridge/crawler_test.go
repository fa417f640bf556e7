package livebridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"BroadcastSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bridgeTransport 预告页HTML + 商品/券接口的端点桩
type bridgeTransport struct {
	html     string
	apiCalls []string
}

func (b *bridgeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := req.URL.Path
	switch {
	case strings.Contains(path, "/products"):
		b.apiCalls = append(b.apiCalls, path)
		attach := req.URL.Query().Get("attachmentType")
		return jsonResp(map[string]any{
			"totalCount": 1,
			"list": []map[string]any{{
				"key":                 "prod-" + attach,
				"name":                attach + "商品",
				"brandName":           "品牌A",
				"discountRate":        10.0,
				"discountedSalePrice": 9000,
				"productLinkUrl":      "https://shopping.naver.com/p/1",
			}},
		}), nil
	case strings.Contains(path, "/coupons"):
		b.apiCalls = append(b.apiCalls, path)
		return jsonResp(map[string]any{
			"coupons": []map[string]any{{"title": "专享券", "benefitUnit": "percent", "benefitValue": 15}},
		}), nil
	default:
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/html"}},
			Body:       io.NopCloser(strings.NewReader(b.html)),
			Request:    req,
		}, nil
	}
}

func jsonResp(v any) *http.Response {
	body, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func bridgeHTML(info map[string]any) string {
	state := map[string]any{
		"props": map[string]any{"pageProps": map[string]any{"bridgeInfo": info}},
	}
	blob, _ := json.Marshal(state)
	return fmt.Sprintf(`<html><body><script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`, blob)
}

func bridgeTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Crawler.RetryCount = 1
	cfg.Crawler.ProductPageSize = 50
	cfg.Crawler.ProductMaxPages = 5
	return cfg
}

func TestCrawlFullPipeline(t *testing.T) {
	transport := &bridgeTransport{html: bridgeHTML(map[string]any{
		"broadcastId":       float64(1776510),
		"title":             "周五晚八点开抢",
		"nickname":          "主播小金",
		"expectedStartDate": "2026-09-04 20:00",
		"liveBenefits":      []any{map[string]any{"message": "直播间专属赠品"}},
		"benefitsByAmount":  []any{map[string]any{"amount": float64(50000), "message": "满5万减5千"}},
		"contentsJson": `{"document":{"components":[
			{"@ctype":"image","src":"https://img.example/banner.jpg"},
			{"@ctype":"text","value":"说明"}
		]}}`,
	})}
	c := NewCrawler(&http.Client{Transport: transport}, nil, bridgeTestConfig(), logrus.New())

	record, err := c.Crawl(context.Background(), "https://view.shoppinglive.naver.com/livebridges/1776510")
	require.NoError(t, err)

	require.NotNil(t, record.BroadcastID)
	assert.Equal(t, int64(1776510), *record.BroadcastID)
	assert.Equal(t, "周五晚八点开抢", record.Title)

	// MAIN与SUB各自独立分页
	require.Len(t, record.Products, 2)
	assert.Equal(t, "MAIN", record.Products[0].AttachmentType)
	assert.Equal(t, "SUB", record.Products[1].AttachmentType)

	require.Len(t, record.SpecialCoupons, 1)
	assert.Equal(t, "专享券", record.SpecialCoupons[0].Title)

	assert.Equal(t, []string{"https://img.example/banner.jpg"}, record.Images)
	assert.Equal(t, []string{"直播间专属赠品"}, record.LiveBenefits)
	require.Len(t, record.BenefitsByAmount, 1)
	assert.Equal(t, int64(50000), *record.BenefitsByAmount[0].Amount)

	// 品牌名兜底链：bridgeInfo没给，取第一个商品的品牌
	assert.Equal(t, "品牌A", record.BrandName)
}

func TestCrawlMissingScriptFailsBeforeAPI(t *testing.T) {
	transport := &bridgeTransport{html: "<html><body>没有内嵌状态</body></html>"}
	c := NewCrawler(&http.Client{Transport: transport}, nil, bridgeTestConfig(), logrus.New())

	_, err := c.Crawl(context.Background(), "https://view.shoppinglive.naver.com/livebridges/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "__NEXT_DATA__")
	// 脚本缺失必须在任何接口调用之前失败
	assert.Empty(t, transport.apiCalls)
}

func TestCrawlMissingBroadcastIDFails(t *testing.T) {
	transport := &bridgeTransport{html: bridgeHTML(map[string]any{"title": "无id预告"})}
	c := NewCrawler(&http.Client{Transport: transport}, nil, bridgeTestConfig(), logrus.New())

	_, err := c.Crawl(context.Background(), "https://view.shoppinglive.naver.com/livebridges/1")
	require.Error(t, err)
	assert.Empty(t, transport.apiCalls)
}

func TestCrawlBrandFallbackToNickname(t *testing.T) {
	html := bridgeHTML(map[string]any{
		"broadcastId": float64(7),
		"title":       "预告",
		"nickname":    "主播小金",
	})
	// 商品接口返回空列表
	transport := &emptyProductTransport{html: html}
	c := NewCrawler(&http.Client{Transport: transport}, nil, bridgeTestConfig(), logrus.New())

	record, err := c.Crawl(context.Background(), "https://view.shoppinglive.naver.com/livebridges/7")
	require.NoError(t, err)
	assert.Equal(t, "主播小金", record.BrandName)
}

type emptyProductTransport struct {
	html string
}

func (e *emptyProductTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := req.URL.Path
	switch {
	case strings.Contains(path, "/products"):
		return jsonResp(map[string]any{"totalCount": 0, "list": []any{}}), nil
	case strings.Contains(path, "/coupons"):
		return jsonResp(map[string]any{"coupons": []any{}}), nil
	default:
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/html"}},
			Body:       io.NopCloser(strings.NewReader(e.html)),
			Request:    req,
		}, nil
	}
}
