package model

import (
	"time"

	"gorm.io/datatypes"
)

// Livebridge 预告页主表。以url唯一键做upsert（预告页可能先于直播id存在）。
type Livebridge struct {
	ID                uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	URL               string         `gorm:"column:url;type:varchar(512);uniqueIndex;not null;comment:预告页URL"`
	BroadcastID       *int64         `gorm:"column:broadcast_id;type:bigint;index;comment:关联直播ID（可空）"`
	Title             string         `gorm:"column:title;type:varchar(512);comment:预告标题"`
	BrandName         string         `gorm:"column:brand_name;type:varchar(256);comment:品牌名"`
	Nickname          string         `gorm:"column:nickname;type:varchar(128);comment:主播昵称"`
	ExpectedStartDate *string        `gorm:"column:expected_start_date;type:varchar(64);comment:预计开播（来源原文）"`
	StandByImage      string         `gorm:"column:stand_by_image;type:varchar(1024);comment:待机图"`
	RawData           datatypes.JSON `gorm:"column:raw_data;type:jsonb;comment:爬取结果原文"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// LivebridgeProduct 预告页商品子表，先删后插
type LivebridgeProduct struct {
	ID              uint64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	LivebridgeID    uint64   `gorm:"column:livebridge_id;index;not null;comment:所属预告页ID"`
	ProductID       string   `gorm:"column:product_id;type:varchar(64);comment:来源商品键"`
	Name            string   `gorm:"column:name;type:varchar(512);comment:商品名"`
	BrandName       string   `gorm:"column:brand_name;type:varchar(256);comment:品牌名"`
	AttachmentType  string   `gorm:"column:attachment_type;type:varchar(16);comment:MAIN/SUB"`
	DiscountRate    *float64 `gorm:"column:discount_rate;type:numeric(5,2);comment:折扣率0-100"`
	DiscountedPrice *int64   `gorm:"column:discounted_price;type:bigint;comment:折后价"`
	ImageURL        string   `gorm:"column:image_url;type:varchar(1024);comment:商品图"`
	LinkURL         string   `gorm:"column:link_url;type:varchar(1024);comment:商品链接"`
}

// LivebridgeSpecialCoupon 专享券子表，先删后插
type LivebridgeSpecialCoupon struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	LivebridgeID uint64 `gorm:"column:livebridge_id;index;not null;comment:所属预告页ID"`
	Title        string `gorm:"column:title;type:varchar(256);comment:券名"`
	BenefitUnit  string `gorm:"column:benefit_unit;type:varchar(16);comment:fixed/percent"`
	BenefitValue *int64 `gorm:"column:benefit_value;type:bigint;comment:面额或百分比"`
}

// LivebridgeSimpleCoupon 图片提取出的简化券（只留文本，刻意压缩存储）
type LivebridgeSimpleCoupon struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	LivebridgeID uint64 `gorm:"column:livebridge_id;index;not null;comment:所属预告页ID"`
	Text         string `gorm:"column:text;type:varchar(512);comment:券文本"`
}

// LivebridgeLiveBenefit 直播权益子表，先删后插
type LivebridgeLiveBenefit struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	LivebridgeID uint64 `gorm:"column:livebridge_id;index;not null;comment:所属预告页ID"`
	Message      string `gorm:"column:message;type:varchar(512);comment:文案"`
}

// LivebridgeBenefitByAmount 按金额阶梯的权益子表，先删后插
type LivebridgeBenefitByAmount struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	LivebridgeID uint64 `gorm:"column:livebridge_id;index;not null;comment:所属预告页ID"`
	Amount       *int64 `gorm:"column:amount;type:bigint;comment:门槛金额"`
	Message      string `gorm:"column:message;type:varchar(512);comment:文案"`
}

func (Livebridge) TableName() string                { return "livebridges" }
func (LivebridgeProduct) TableName() string         { return "livebridge_products" }
func (LivebridgeSpecialCoupon) TableName() string   { return "livebridge_special_coupons" }
func (LivebridgeSimpleCoupon) TableName() string    { return "livebridge_simple_coupons" }
func (LivebridgeLiveBenefit) TableName() string     { return "livebridge_live_benefits" }
func (LivebridgeBenefitByAmount) TableName() string { return "livebridge_benefits_by_amount" }

// LivebridgeRecord 预告页爬取的内存产物（入库前的精简投影）
type LivebridgeRecord struct {
	URL               string              `json:"url"`
	BroadcastID       *int64              `json:"broadcast_id"`
	Title             string              `json:"title"`
	BrandName         string              `json:"brand_name"`
	Nickname          string              `json:"nickname"`
	ExpectedStartDate string              `json:"expected_start_date"`
	StandByImage      string              `json:"stand_by_image"`
	Products          []BridgeProductInfo `json:"products"`
	SpecialCoupons    []BridgeCouponInfo  `json:"special_coupons"`
	SimpleCoupons     []string            `json:"simple_coupons"`
	LiveBenefits      []string            `json:"live_benefits"`
	BenefitsByAmount  []BridgeAmountInfo  `json:"benefits_by_amount"`
	Images            []string            `json:"images"`
	Raw               map[string]any      `json:"raw_data"`
	CrawledAt         time.Time           `json:"crawled_at"`
}

// BridgeProductInfo 预告页商品（含MAIN/SUB挂载类型）
type BridgeProductInfo struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	BrandName       string   `json:"brand_name"`
	AttachmentType  string   `json:"attachment_type"`
	DiscountRate    *float64 `json:"discount_rate"`
	DiscountedPrice *int64   `json:"discounted_price"`
	ImageURL        string   `json:"image_url"`
	LinkURL         string   `json:"link_url"`
}

// BridgeCouponInfo 预告页专享券
type BridgeCouponInfo struct {
	Title        string `json:"title"`
	BenefitUnit  string `json:"benefit_unit"`
	BenefitValue *int64 `json:"benefit_value"`
}

// BridgeAmountInfo 按金额阶梯权益
type BridgeAmountInfo struct {
	Amount  *int64 `json:"amount"`
	Message string `json:"message"`
}
