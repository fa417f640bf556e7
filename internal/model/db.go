package model

import (
	"time"

	"gorm.io/datatypes"
)

// Broadcast 直播主表。主键为来源平台分配的直播id（非自增），
// 同一id重复爬取只覆盖不新增。
type Broadcast struct {
	ID                int64          `gorm:"column:id;primaryKey;comment:来源平台直播ID"`
	Title             string         `gorm:"column:title;type:varchar(512);comment:直播标题"`
	BrandName         string         `gorm:"column:brand_name;type:varchar(256);comment:品牌名"`
	Description       string         `gorm:"column:description;type:text;comment:直播简介"`
	Status            string         `gorm:"column:status;type:varchar(32);comment:来源状态文本"`
	StandByImage      string         `gorm:"column:stand_by_image;type:varchar(1024);comment:待机图"`
	BroadcastDate     *string        `gorm:"column:broadcast_date;type:varchar(64);comment:开播时间（来源原文）"`
	BroadcastEndDate  *string        `gorm:"column:broadcast_end_date;type:varchar(64);comment:结束时间（来源原文）"`
	ExpectedStartDate *string        `gorm:"column:expected_start_date;type:varchar(64);comment:预计开播（来源原文）"`
	ReplayURL         string         `gorm:"column:replay_url;type:varchar(512);comment:回放链接"`
	BroadcastURL      string         `gorm:"column:broadcast_url;type:varchar(512);comment:直播链接"`
	LivebridgeURL     string         `gorm:"column:livebridge_url;type:varchar(512);comment:预告页链接"`
	BroadcastType     string         `gorm:"column:broadcast_type;type:varchar(16);comment:分类器判定的类型"`
	RawData           datatypes.JSON `gorm:"column:raw_data;type:jsonb;comment:爬取结果原文"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// Product 商品子表。每次重爬整表替换（先删后插），不做原地更新。
type Product struct {
	ID              uint64   `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	BroadcastID     int64    `gorm:"column:broadcast_id;index;not null;comment:所属直播ID"`
	ProductID       string   `gorm:"column:product_id;type:varchar(64);not null;comment:来源商品键"`
	Name            string   `gorm:"column:name;type:varchar(512);comment:商品名"`
	BrandName       string   `gorm:"column:brand_name;type:varchar(256);comment:品牌名"`
	DiscountRate    *float64 `gorm:"column:discount_rate;type:numeric(5,2);comment:折扣率0-100"`
	DiscountedPrice *int64   `gorm:"column:discounted_price;type:bigint;comment:折后价"`
	OriginalPrice   *int64   `gorm:"column:original_price;type:bigint;comment:原价（缺省时按折扣率推导）"`
	Stock           *int64   `gorm:"column:stock;type:bigint;comment:库存"`
	ImageURL        string   `gorm:"column:image_url;type:varchar(1024);comment:商品图"`
	LinkURL         string   `gorm:"column:link_url;type:varchar(1024);comment:商品链接"`
	ReviewCount     *int64   `gorm:"column:review_count;type:bigint;comment:评价数"`
	DeliveryFee     *int64   `gorm:"column:delivery_fee;type:bigint;comment:运费"`
}

// Coupon 优惠券子表，先删后插
type Coupon struct {
	ID                uint64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	BroadcastID       int64   `gorm:"column:broadcast_id;index;not null;comment:所属直播ID"`
	Title             string  `gorm:"column:title;type:varchar(256);comment:券名"`
	BenefitType       string  `gorm:"column:benefit_type;type:varchar(64);comment:权益类型"`
	BenefitUnit       string  `gorm:"column:benefit_unit;type:varchar(16);comment:fixed/percent"`
	BenefitValue      *int64  `gorm:"column:benefit_value;type:bigint;comment:面额或百分比"`
	MinOrderAmount    *int64  `gorm:"column:min_order_amount;type:bigint;comment:最低使用门槛"`
	MaxDiscountAmount *int64  `gorm:"column:max_discount_amount;type:bigint;comment:最高减免"`
	ValidStart        *string `gorm:"column:valid_start;type:varchar(64);comment:生效时间（来源原文）"`
	ValidEnd          *string `gorm:"column:valid_end;type:varchar(64);comment:失效时间（来源原文）"`
}

// Benefit 文字权益子表（横幅类促销文案，非优惠券），先删后插
type Benefit struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	BroadcastID int64  `gorm:"column:broadcast_id;index;not null;comment:所属直播ID"`
	BenefitID   *int64 `gorm:"column:benefit_id;type:bigint;comment:来源权益ID"`
	Message     string `gorm:"column:message;type:varchar(512);comment:文案"`
	Detail      string `gorm:"column:detail;type:text;comment:详情"`
	BenefitType string `gorm:"column:benefit_type;type:varchar(64);comment:权益类型"`
}

// ChatMessage 聊天子表（抽样后留存），先删后插
type ChatMessage struct {
	ID              uint64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	BroadcastID     int64   `gorm:"column:broadcast_id;index;not null;comment:所属直播ID"`
	Nickname        string  `gorm:"column:nickname;type:varchar(128);comment:昵称"`
	Message         string  `gorm:"column:message;type:text;comment:内容"`
	CreatedAtSource *string `gorm:"column:created_at_source;type:varchar(64);comment:来源时间原文"`
	CommentType     string  `gorm:"column:comment_type;type:varchar(32);comment:评论类型"`
}

// CrawlMetadata 爬取审计表。每次尝试追加一行，从不更新，
// 失败的爬取也要留痕。
type CrawlMetadata struct {
	ID               uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键"`
	BroadcastID      int64          `gorm:"column:broadcast_id;index;comment:直播ID（失败时可为0）"`
	SourceURL        string         `gorm:"column:source_url;type:varchar(512);comment:输入URL"`
	ExtractionMethod string         `gorm:"column:extraction_method;type:varchar(16);comment:API/JSON/HYBRID"`
	URLType          string         `gorm:"column:url_type;type:varchar(16);comment:replay/live/shortclip"`
	CrawlerVersion   string         `gorm:"column:crawler_version;type:varchar(32);comment:爬虫版本"`
	Errors           datatypes.JSON `gorm:"column:errors;type:jsonb;comment:错误列表"`
	Warnings         datatypes.JSON `gorm:"column:warnings;type:jsonb;comment:降级警告列表"`
	CrawledAt        time.Time      `gorm:"column:crawled_at;type:timestamp;comment:爬取时间"`
	Status           string         `gorm:"column:status;type:varchar(16);comment:success/partial/error"`
	ErrorMessage     string         `gorm:"column:error_message;type:text;comment:致命错误信息"`
}

func (Broadcast) TableName() string     { return "broadcasts" }
func (Product) TableName() string       { return "products" }
func (Coupon) TableName() string        { return "coupons" }
func (Benefit) TableName() string       { return "benefits" }
func (ChatMessage) TableName() string   { return "chat_messages" }
func (CrawlMetadata) TableName() string { return "crawl_metadata" }
