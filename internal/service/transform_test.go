package service

import (
	"testing"
	"time"

	"BroadcastSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func TestDeriveOriginalPrice(t *testing.T) {
	cases := []struct {
		name string
		p    int64
		r    float64
		want int64
	}{
		{"两成折扣", 8000, 20, 10000},
		{"需要四舍五入", 9999, 33, 14924},
		{"零折扣原样返回", 8000, 0, 8000},
		{"百分百折扣不做除法", 8000, 100, 8000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveOriginalPrice(tc.p, tc.r))
		})
	}
}

func sampleResult() *model.CrawlResult {
	return &model.CrawlResult{
		Broadcast: model.BroadcastInfo{ID: 1776510, Title: "周五晚八点开抢"},
		Kind:      model.KindReplay,
		Method:    model.MethodAPI,
		SourceURL: "https://view.shoppinglive.naver.com/replays/1776510",
		CrawledAt: time.Now(),
	}
}

func TestTransformDerivesOriginalPrice(t *testing.T) {
	result := sampleResult()
	result.Products = []model.ProductInfo{
		{ProductID: "a", Name: "原价缺省", DiscountedPrice: i64(8000), DiscountRate: f64(20)},
		{ProductID: "b", Name: "原价已有", DiscountedPrice: i64(5000), OriginalPrice: i64(6000)},
		{ProductID: "c", Name: "无折扣率", DiscountedPrice: i64(3000)},
	}

	_, children, _ := TransformResult(result)
	require.Len(t, children.Products, 3)
	require.NotNil(t, children.Products[0].OriginalPrice)
	assert.Equal(t, int64(10000), *children.Products[0].OriginalPrice)
	// 来源给了原价就不覆盖
	assert.Equal(t, int64(6000), *children.Products[1].OriginalPrice)
	// 折扣率缺省视为0：原价即折后价
	assert.Equal(t, int64(3000), *children.Products[2].OriginalPrice)
}

func TestTransformFillsURLTemplates(t *testing.T) {
	result := sampleResult()
	b, _, _ := TransformResult(result)
	assert.Equal(t, "https://view.shoppinglive.naver.com/replays/1776510", b.ReplayURL)
	assert.Equal(t, "https://view.shoppinglive.naver.com/lives/1776510", b.BroadcastURL)
	assert.Equal(t, "https://view.shoppinglive.naver.com/livebridges/1776510", b.LivebridgeURL)
}

func TestTransformKeepsSourceURLs(t *testing.T) {
	result := sampleResult()
	result.Broadcast.ReplayURL = "https://example.com/custom"
	b, _, _ := TransformResult(result)
	assert.Equal(t, "https://example.com/custom", b.ReplayURL)
}

func TestStatusPartialOnFallbackWarning(t *testing.T) {
	result := sampleResult()
	result.AddWarning("coupons", "接口未捕获，置空", []any{})
	_, _, meta := TransformResult(result)
	assert.Equal(t, string(model.StatusPartial), meta.Status)
}

func TestStatusSuccessWithoutFallback(t *testing.T) {
	result := sampleResult()
	// 无兜底值的警告不降级状态
	result.Warnings = append(result.Warnings, model.CrawlWarning{Field: "note", Message: "仅提示"})
	_, _, meta := TransformResult(result)
	assert.Equal(t, string(model.StatusSuccess), meta.Status)
}

func TestStatusNotPartialWhenErrorsPresent(t *testing.T) {
	result := sampleResult()
	result.AddError("nav", "导航超时")
	result.AddWarning("products", "DOM兜底", 3)
	_, _, meta := TransformResult(result)
	assert.NotEqual(t, string(model.StatusPartial), meta.Status)
}
