package model

// ========== 直播平台 API 响应结构（拦截/直连共用） ==========

// BroadcastPayload 主直播接口响应（/v1/broadcast/{id}?needTimeMachine=...）
type BroadcastPayload struct {
	ID                  int64                `json:"id"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Status              string               `json:"status"` // ONAIR/END/BLOCK 等来源原文
	StandByImage        string               `json:"standByImage"`
	BroadcastDate       string               `json:"broadcastDate"`
	BroadcastEndDate    string               `json:"broadcastEndDate"`
	ExpectedStartDate   string               `json:"expectedStartDate"`
	BroadcastType       string               `json:"broadcastType"`
	Nickname            string               `json:"nickname"`
	BrandName           string               `json:"brandName"`
	ProductCount        int                  `json:"productCount"` // 自报商品总数，与实际列表长度可能不一致
	ShoppingProducts    []ShoppingProductAPI `json:"shoppingProducts"`
	DisplayedLiveBridge map[string]any       `json:"displayedLiveBridge"`
	Extras              map[string]any       `json:"extras"`
}

// ShoppingProductAPI 接口返回的单个商品
type ShoppingProductAPI struct {
	Key             string  `json:"key"`
	ProductNo       int64   `json:"productNo"`
	Name            string  `json:"name"`
	BrandName       string  `json:"brandName"`
	DiscountRate    float64 `json:"discountRate"`
	DiscountedPrice int64   `json:"discountedSalePrice"`
	Price           int64   `json:"price"`
	StockQuantity   *int64  `json:"stockQuantity"`
	Image           string  `json:"image"`
	ProductLinkURL  string  `json:"productLinkUrl"`
	ReviewCount     *int64  `json:"reviewCount"`
	DeliveryFee     *int64  `json:"deliveryFee"`
}

// CouponPayload 优惠券接口响应
type CouponPayload struct {
	Coupons []CouponAPI `json:"coupons"`
}

// CouponAPI 单张券
type CouponAPI struct {
	Title             string `json:"title"`
	BenefitType       string `json:"benefitType"`
	BenefitUnit       string `json:"benefitUnit"` // FIXED/PERCENT
	BenefitValue      *int64 `json:"benefitValue"`
	MinOrderAmount    *int64 `json:"minOrderAmount"`
	MaxDiscountAmount *int64 `json:"maxDiscountAmount"`
	ValidStartDate    string `json:"validStartDate"`
	ValidEndDate      string `json:"validEndDate"`
}

// BenefitPayload 文字权益接口响应
type BenefitPayload struct {
	Benefits []BenefitAPI `json:"benefits"`
}

// BenefitAPI 单条文字权益
type BenefitAPI struct {
	ID          *int64 `json:"id"`
	Message     string `json:"message"`
	Detail      string `json:"detail"`
	BenefitType string `json:"benefitType"`
}

// CommentPage 评论分页响应。游标对（lastCommentNo + lastCreatedAtMilli）
// 由每页返回，翻页时原样带回。
type CommentPage struct {
	Comments           []CommentAPI `json:"comments"`
	HasNext            bool         `json:"hasNext"`
	LastCommentNo      int64        `json:"lastCommentNo"`
	LastCreatedAtMilli int64        `json:"lastCreatedAtMilli"`
}

// CommentAPI 单条评论
type CommentAPI struct {
	CommentNo      int64  `json:"commentNo"`
	Nickname       string `json:"nickname"`
	Message        string `json:"message"`
	CreatedAt      string `json:"createdAt"`
	CommentType    string `json:"commentType"`
	CreatedAtMilli int64  `json:"createdAtMilli"`
}

// ShortclipPayload 短视频接口响应
type ShortclipPayload struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Status           string               `json:"status"`
	StandByImage     string               `json:"thumbnailImageUrl"`
	BroadcastDate    string               `json:"createdAt"`
	BrandName        string               `json:"brandName"`
	Nickname         string               `json:"nickname"`
	ShoppingProducts []ShoppingProductAPI `json:"shoppingProducts"`
}

// ProductPage 商品直连分页接口响应（lives页内嵌JSON不全时补拉）
type ProductPage struct {
	TotalCount int                  `json:"totalCount"`
	Products   []ShoppingProductAPI `json:"list"`
}

// ========== 预告页（livebridge）相关结构 ==========

// BridgeProductPage 预告页商品分页接口响应
type BridgeProductPage struct {
	TotalCount int                `json:"totalCount"`
	Products   []BridgeProductAPI `json:"list"`
}

// BridgeProductAPI 预告页单个商品
type BridgeProductAPI struct {
	Key             string  `json:"key"`
	ProductNo       int64   `json:"productNo"`
	Name            string  `json:"name"`
	BrandName       string  `json:"brandName"`
	AttachmentType  string  `json:"attachmentType"` // MAIN/SUB
	DiscountRate    float64 `json:"discountRate"`
	DiscountedPrice int64   `json:"discountedSalePrice"`
	Image           string  `json:"image"`
	ProductLinkURL  string  `json:"productLinkUrl"`
}

// BridgeCouponResponse 预告页专享券接口响应（单页，无分页）
type BridgeCouponResponse struct {
	Coupons []BridgeCouponAPI `json:"coupons"`
}

// BridgeCouponAPI 预告页单张专享券
type BridgeCouponAPI struct {
	Title        string `json:"title"`
	BenefitUnit  string `json:"benefitUnit"`
	BenefitValue *int64 `json:"benefitValue"`
}
