package service

import (
	"fmt"

	"BroadcastSync/internal/model"
)

// ValidateBroadcast 直播主体校验：id与标题必填
func ValidateBroadcast(b *model.BroadcastInfo) (bool, []string) {
	var issues []string
	if b.ID <= 0 {
		issues = append(issues, "broadcast_id缺失")
	}
	if b.Title == "" {
		issues = append(issues, "title缺失")
	}
	return len(issues) == 0, issues
}

// ValidateProduct 商品校验：折扣率0-100，金额/数量非负
func ValidateProduct(p *model.ProductInfo) (bool, []string) {
	var issues []string
	if p.DiscountRate != nil && (*p.DiscountRate < 0 || *p.DiscountRate > 100) {
		issues = append(issues, fmt.Sprintf("discount_rate越界: %v", *p.DiscountRate))
	}
	issues = appendNonNegative(issues, "discounted_price", p.DiscountedPrice)
	issues = appendNonNegative(issues, "original_price", p.OriginalPrice)
	issues = appendNonNegative(issues, "stock", p.Stock)
	issues = appendNonNegative(issues, "review_count", p.ReviewCount)
	issues = appendNonNegative(issues, "delivery_fee", p.DeliveryFee)
	return len(issues) == 0, issues
}

// ValidateCoupon 优惠券校验：各金额字段非负
func ValidateCoupon(c *model.CouponInfo) (bool, []string) {
	var issues []string
	issues = appendNonNegative(issues, "benefit_value", c.BenefitValue)
	issues = appendNonNegative(issues, "min_order_amount", c.MinOrderAmount)
	issues = appendNonNegative(issues, "max_discount_amount", c.MaxDiscountAmount)
	return len(issues) == 0, issues
}

// ValidateBenefit 权益校验：文案必填
func ValidateBenefit(b *model.BenefitInfo) (bool, []string) {
	var issues []string
	if b.Message == "" {
		issues = append(issues, "message缺失")
	}
	return len(issues) == 0, issues
}

func appendNonNegative(issues []string, field string, v *int64) []string {
	if v != nil && *v < 0 {
		issues = append(issues, fmt.Sprintf("%s为负: %d", field, *v))
	}
	return issues
}

// ValidateAll 全量校验。不短路，跑完所有实体后按
// broadcast/product_i/coupon_i/benefit_i 聚合问题清单。
func ValidateAll(result *model.CrawlResult) (bool, map[string][]string) {
	problems := make(map[string][]string)
	if ok, issues := ValidateBroadcast(&result.Broadcast); !ok {
		problems["broadcast"] = issues
	}
	for i := range result.Products {
		if ok, issues := ValidateProduct(&result.Products[i]); !ok {
			problems[fmt.Sprintf("product_%d", i)] = issues
		}
	}
	for i := range result.Coupons {
		if ok, issues := ValidateCoupon(&result.Coupons[i]); !ok {
			problems[fmt.Sprintf("coupon_%d", i)] = issues
		}
	}
	for i := range result.Benefits {
		if ok, issues := ValidateBenefit(&result.Benefits[i]); !ok {
			problems[fmt.Sprintf("benefit_%d", i)] = issues
		}
	}
	return len(problems) == 0, problems
}
