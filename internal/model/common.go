package model

import (
	"fmt"
	"time"
)

// BroadcastKind 直播类型枚举
type BroadcastKind string

const (
	KindReplay    BroadcastKind = "replay"    // 回放
	KindLive      BroadcastKind = "live"      // 直播中
	KindShortClip BroadcastKind = "shortclip" // 短视频
)

// ExtractionMethod 主数据来源枚举
type ExtractionMethod string

const (
	MethodAPI    ExtractionMethod = "API"    // 网络响应拦截
	MethodJSON   ExtractionMethod = "JSON"   // 页面内嵌JSON
	MethodHybrid ExtractionMethod = "HYBRID" // 多来源合并（含DOM兜底）
)

// CrawlStatus 单次爬取的最终状态
type CrawlStatus string

const (
	StatusSuccess CrawlStatus = "success" // 全部字段取到
	StatusPartial CrawlStatus = "partial" // 无错误但有字段降级
	StatusError   CrawlStatus = "error"   // 未能构建出直播记录
)

// CrawlWarning 降级警告：记录字段名、说明与实际采用的兜底值
type CrawlWarning struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Fallback any    `json:"fallback_value,omitempty"`
}

// CrawlError 爬取过程中的错误条目
type CrawlError struct {
	Time    time.Time `json:"timestamp"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// BroadcastInfo 一场直播的规范化字段（入库前的内存形态）
type BroadcastInfo struct {
	ID                int64  `json:"broadcast_id"`
	Title             string `json:"title"`
	BrandName         string `json:"brand_name"`
	Description       string `json:"description"`
	Status            string `json:"status"`
	StandByImage      string `json:"stand_by_image"`
	BroadcastDate     string `json:"broadcast_date"`
	BroadcastEndDate  string `json:"broadcast_end_date"`
	ExpectedStartDate string `json:"expected_start_date"`
	ReplayURL         string `json:"replay_url"`
	BroadcastURL      string `json:"broadcast_url"`
	LivebridgeURL     string `json:"livebridge_url"`
	ProductCount      int    `json:"product_count"` // 页面/接口自报的商品总数
}

// ProductInfo 商品字段（入库前）
type ProductInfo struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	BrandName       string   `json:"brand_name"`
	DiscountRate    *float64 `json:"discount_rate"`
	DiscountedPrice *int64   `json:"discounted_price"`
	OriginalPrice   *int64   `json:"original_price"`
	Stock           *int64   `json:"stock"`
	ImageURL        string   `json:"image_url"`
	LinkURL         string   `json:"link_url"`
	ReviewCount     *int64   `json:"review_count"`
	DeliveryFee     *int64   `json:"delivery_fee"`
}

// CouponInfo 优惠券字段（入库前）
type CouponInfo struct {
	Title             string `json:"title"`
	BenefitType       string `json:"benefit_type"`
	BenefitUnit       string `json:"benefit_unit"` // fixed/percent
	BenefitValue      *int64 `json:"benefit_value"`
	MinOrderAmount    *int64 `json:"min_order_amount"`
	MaxDiscountAmount *int64 `json:"max_discount_amount"`
	ValidStart        string `json:"valid_start"`
	ValidEnd          string `json:"valid_end"`
}

// BenefitInfo 文字类促销权益（非优惠券）
type BenefitInfo struct {
	BenefitID   *int64 `json:"benefit_id"`
	Message     string `json:"message"`
	Detail      string `json:"detail"`
	BenefitType string `json:"benefit_type"`
}

// ChatInfo 直播聊天（抽样后）
type ChatInfo struct {
	Nickname        string `json:"nickname"`
	Message         string `json:"message"`
	CreatedAtSource string `json:"created_at_source"`
	CommentType     string `json:"comment_type"`
}

// CrawlResult 一次爬取的完整产物。value/errors/warnings 显式分离，
// 诊断信息是类型的一部分而不是藏在map里的约定键。
type CrawlResult struct {
	Broadcast BroadcastInfo    `json:"broadcast"`
	Products  []ProductInfo    `json:"products"`
	Coupons   []CouponInfo     `json:"coupons"`
	Benefits  []BenefitInfo    `json:"benefits"`
	Chat      []ChatInfo       `json:"chat"`
	Method    ExtractionMethod `json:"extraction_method"`
	Kind      BroadcastKind    `json:"url_type"`
	SourceURL string           `json:"source_url"`
	Raw       map[string]any   `json:"raw_data"`
	Errors    []CrawlError     `json:"errors"`
	Warnings  []CrawlWarning   `json:"warnings"`
	CrawledAt time.Time        `json:"crawled_at"`
}

// AddWarning 追加一条降级警告
func (r *CrawlResult) AddWarning(field, message string, fallback any) {
	r.Warnings = append(r.Warnings, CrawlWarning{Field: field, Message: message, Fallback: fallback})
}

// AddError 追加一条错误
func (r *CrawlResult) AddError(errType, message string) {
	r.Errors = append(r.Errors, CrawlError{Time: time.Now(), Type: errType, Message: message})
}

// 固定URL模板：来源缺省链接时按id推导
const (
	ReplayURLTemplate     = "https://view.shoppinglive.naver.com/replays/%d"
	LiveURLTemplate       = "https://view.shoppinglive.naver.com/lives/%d"
	LivebridgeURLTemplate = "https://view.shoppinglive.naver.com/livebridges/%d"
)

// ReplayURL 按直播id推导回放链接
func ReplayURL(id int64) string { return fmt.Sprintf(ReplayURLTemplate, id) }

// LiveURL 按直播id推导直播链接
func LiveURL(id int64) string { return fmt.Sprintf(LiveURLTemplate, id) }

// LivebridgeURL 按直播id推导预告页链接
func LivebridgeURL(id int64) string { return fmt.Sprintf(LivebridgeURLTemplate, id) }
