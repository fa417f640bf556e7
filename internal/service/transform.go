package service

import (
	"encoding/json"
	"math"

	"BroadcastSync/internal/crawler"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"

	"gorm.io/datatypes"
)

// TransformResult 爬取产物 → 各表行。纯映射，可选来源字段缺失
// 一律容忍（落nil）。
func TransformResult(result *model.CrawlResult) (*model.Broadcast, *repository.Children, *model.CrawlMetadata) {
	b := transformBroadcast(result)
	children := &repository.Children{
		Products: transformProducts(result.Broadcast.ID, result.Products),
		Coupons:  transformCoupons(result.Broadcast.ID, result.Coupons),
		Benefits: transformBenefits(result.Broadcast.ID, result.Benefits),
		Chat:     transformChat(result.Broadcast.ID, result.Chat),
	}
	meta := transformMetadata(result)
	return b, children, meta
}

func transformBroadcast(result *model.CrawlResult) *model.Broadcast {
	info := &result.Broadcast
	b := &model.Broadcast{
		ID:            info.ID,
		Title:         info.Title,
		BrandName:     info.BrandName,
		Description:   info.Description,
		Status:        info.Status,
		StandByImage:  info.StandByImage,
		BroadcastType: string(result.Kind),
	}
	if info.BroadcastDate != "" {
		v := info.BroadcastDate
		b.BroadcastDate = &v
	}
	if info.BroadcastEndDate != "" {
		v := info.BroadcastEndDate
		b.BroadcastEndDate = &v
	}
	if info.ExpectedStartDate != "" {
		v := info.ExpectedStartDate
		b.ExpectedStartDate = &v
	}

	// 来源缺省链接时按固定模板从id推导
	b.ReplayURL = info.ReplayURL
	if b.ReplayURL == "" {
		b.ReplayURL = model.ReplayURL(info.ID)
	}
	b.BroadcastURL = info.BroadcastURL
	if b.BroadcastURL == "" {
		b.BroadcastURL = model.LiveURL(info.ID)
	}
	b.LivebridgeURL = info.LivebridgeURL
	if b.LivebridgeURL == "" {
		b.LivebridgeURL = model.LivebridgeURL(info.ID)
	}

	// 整个爬取产物原样入raw_data，向前兼容/排障用
	if raw, err := json.Marshal(result); err == nil {
		b.RawData = datatypes.JSON(raw)
	}
	return b
}

func transformProducts(broadcastID int64, infos []model.ProductInfo) []model.Product {
	rows := make([]model.Product, 0, len(infos))
	for _, p := range infos {
		row := model.Product{
			BroadcastID:     broadcastID,
			ProductID:       p.ProductID,
			Name:            p.Name,
			BrandName:       p.BrandName,
			DiscountRate:    p.DiscountRate,
			DiscountedPrice: p.DiscountedPrice,
			OriginalPrice:   p.OriginalPrice,
			Stock:           p.Stock,
			ImageURL:        p.ImageURL,
			LinkURL:         p.LinkURL,
			ReviewCount:     p.ReviewCount,
			DeliveryFee:     p.DeliveryFee,
		}
		if row.OriginalPrice == nil && row.DiscountedPrice != nil {
			orig := DeriveOriginalPrice(*row.DiscountedPrice, rateOrZero(row.DiscountRate))
			row.OriginalPrice = &orig
		}
		rows = append(rows, row)
	}
	return rows
}

// DeriveOriginalPrice 原价缺省时按折后价与折扣率反推：
// r>0时 round(p/(1-r/100))；r=0时原价就是折后价本身，不做除法。
func DeriveOriginalPrice(discountedPrice int64, discountRate float64) int64 {
	if discountRate <= 0 || discountRate >= 100 {
		return discountedPrice
	}
	return int64(math.Round(float64(discountedPrice) / (1 - discountRate/100)))
}

func rateOrZero(rate *float64) float64 {
	if rate == nil {
		return 0
	}
	return *rate
}

func transformCoupons(broadcastID int64, infos []model.CouponInfo) []model.Coupon {
	rows := make([]model.Coupon, 0, len(infos))
	for _, c := range infos {
		row := model.Coupon{
			BroadcastID:       broadcastID,
			Title:             c.Title,
			BenefitType:       c.BenefitType,
			BenefitUnit:       c.BenefitUnit,
			BenefitValue:      c.BenefitValue,
			MinOrderAmount:    c.MinOrderAmount,
			MaxDiscountAmount: c.MaxDiscountAmount,
		}
		if c.ValidStart != "" {
			v := c.ValidStart
			row.ValidStart = &v
		}
		if c.ValidEnd != "" {
			v := c.ValidEnd
			row.ValidEnd = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func transformBenefits(broadcastID int64, infos []model.BenefitInfo) []model.Benefit {
	rows := make([]model.Benefit, 0, len(infos))
	for _, b := range infos {
		rows = append(rows, model.Benefit{
			BroadcastID: broadcastID,
			BenefitID:   b.BenefitID,
			Message:     b.Message,
			Detail:      b.Detail,
			BenefitType: b.BenefitType,
		})
	}
	return rows
}

func transformChat(broadcastID int64, infos []model.ChatInfo) []model.ChatMessage {
	rows := make([]model.ChatMessage, 0, len(infos))
	for _, c := range infos {
		row := model.ChatMessage{
			BroadcastID: broadcastID,
			Nickname:    c.Nickname,
			Message:     c.Message,
			CommentType: c.CommentType,
		}
		if c.CreatedAtSource != "" {
			v := c.CreatedAtSource
			row.CreatedAtSource = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func transformMetadata(result *model.CrawlResult) *model.CrawlMetadata {
	meta := &model.CrawlMetadata{
		BroadcastID:      result.Broadcast.ID,
		SourceURL:        result.SourceURL,
		ExtractionMethod: string(result.Method),
		URLType:          string(result.Kind),
		CrawlerVersion:   crawler.CrawlerVersion,
		CrawledAt:        result.CrawledAt,
		Status:           string(computeStatus(result)),
	}
	if raw, err := json.Marshal(result.Errors); err == nil {
		meta.Errors = datatypes.JSON(raw)
	}
	if raw, err := json.Marshal(result.Warnings); err == nil {
		meta.Warnings = datatypes.JSON(raw)
	}
	return meta
}

// computeStatus partial当且仅当无错误但至少一个字段发生了带
// 兜底值的降级；error状态只在未产出记录的路径上设置。
func computeStatus(result *model.CrawlResult) model.CrawlStatus {
	if len(result.Errors) == 0 {
		for _, w := range result.Warnings {
			if w.Fallback != nil {
				return model.StatusPartial
			}
		}
	}
	return model.StatusSuccess
}
