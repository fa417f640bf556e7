package service

import (
	"testing"

	"BroadcastSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllPasses(t *testing.T) {
	result := sampleResult()
	result.Products = []model.ProductInfo{{ProductID: "p1", Name: "商品", DiscountRate: f64(30)}}
	result.Coupons = []model.CouponInfo{{Title: "券", BenefitValue: i64(1000)}}
	result.Benefits = []model.BenefitInfo{{Message: "买一送一"}}

	ok, problems := ValidateAll(result)
	assert.True(t, ok)
	assert.Empty(t, problems)
}

func TestValidateAllNoShortCircuit(t *testing.T) {
	result := sampleResult()
	result.Products = []model.ProductInfo{
		{ProductID: "p1", Name: "正常"},
		{ProductID: "p2", Name: "折扣率越界", DiscountRate: f64(150)},
		{ProductID: "p3", Name: "负价", DiscountedPrice: i64(-1)},
	}
	result.Coupons = []model.CouponInfo{{Title: "负面额", BenefitValue: i64(-500)}}

	ok, problems := ValidateAll(result)
	assert.False(t, ok)
	// 不短路：所有坏实体都要报出来，好实体不在清单里
	assert.NotContains(t, problems, "product_0")
	assert.Contains(t, problems, "product_1")
	assert.Contains(t, problems, "coupon_0")
	require.Contains(t, problems, "product_2")
	assert.Len(t, problems, 3)
}

func TestValidateBroadcastRequired(t *testing.T) {
	b := &model.BroadcastInfo{}
	ok, issues := ValidateBroadcast(b)
	assert.False(t, ok)
	assert.Len(t, issues, 2)
}

func TestValidateProductBoundaries(t *testing.T) {
	ok, _ := ValidateProduct(&model.ProductInfo{DiscountRate: f64(0)})
	assert.True(t, ok)
	ok, _ = ValidateProduct(&model.ProductInfo{DiscountRate: f64(100)})
	assert.True(t, ok)
	ok, _ = ValidateProduct(&model.ProductInfo{DiscountRate: f64(100.01)})
	assert.False(t, ok)
}
