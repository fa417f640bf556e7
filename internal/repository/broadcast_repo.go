package repository

import (
	"context"
	"fmt"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Children 一场直播的全部子表行（持久化收到的是完整终态快照，
// 入库后不再被修改）
type Children struct {
	Products []model.Product
	Coupons  []model.Coupon
	Benefits []model.Benefit
	Chat     []model.ChatMessage
}

// BroadcastFilter 直播列表筛选
type BroadcastFilter struct {
	Status        string // 来源状态
	BroadcastType string // replay/live/shortclip
}

// BroadcastRepository 直播仓储
type BroadcastRepository interface {
	SaveCrawl(ctx context.Context, b *model.Broadcast, children *Children, meta *model.CrawlMetadata) error
	SaveErrorMetadata(ctx context.Context, meta *model.CrawlMetadata)
	ListBroadcasts(ctx context.Context, filter BroadcastFilter, page, pageSize int) ([]*model.Broadcast, int64, error)
	GetBroadcast(ctx context.Context, id int64) (*model.Broadcast, *Children, error)
}

// broadcastStore 入库序列依赖的最小写能力。单独抽出来是为了
// 让顺序/兜底语义可以脱离真库验证。
type broadcastStore interface {
	UpsertBroadcast(ctx context.Context, b *model.Broadcast) error
	DeleteChildren(ctx context.Context, broadcastID int64) error
	InsertChildren(ctx context.Context, broadcastID int64, children *Children) error
	InsertMetadata(ctx context.Context, meta *model.CrawlMetadata) error
}

type broadcastRepository struct {
	db     *gorm.DB
	policy httpclient.RetryPolicy
	logger *logrus.Logger
}

// NewBroadcastRepository 创建直播仓储
func NewBroadcastRepository(db *gorm.DB, retryCount int, logger *logrus.Logger) BroadcastRepository {
	return &broadcastRepository{
		db:     db,
		policy: httpclient.DefaultPolicy(retryCount),
		logger: logger,
	}
}

// SaveCrawl 固定顺序的入库序列（每步独立重试）：
//  1. upsert直播主行（冲突键id，同id覆盖不新增）
//  2. 删四张子表旧行（best-effort：首爬没有旧行，删失败只告警）
//  3. 各子表批量插入（缺product_id的商品行插前过滤并告警）
//  4. 追加一行爬取审计（只追加，从不upsert）
//
// 序列不可恢复失败时，best-effort写一行error状态审计再返回错误——
// 每次爬取尝试都必须留痕，哪怕这最后一笔本身也允许失败（仅记日志）。
func (r *broadcastRepository) SaveCrawl(ctx context.Context, b *model.Broadcast, children *Children, meta *model.CrawlMetadata) error {
	err := runSaveSequence(ctx, r.logger, r.policy, r, b, children, meta)
	if err != nil {
		errMeta := *meta
		errMeta.Status = string(model.StatusError)
		errMeta.ErrorMessage = err.Error()
		r.SaveErrorMetadata(ctx, &errMeta)
	}
	return err
}

// runSaveSequence 入库序列本体（store可替换）
func runSaveSequence(ctx context.Context, logger *logrus.Logger, policy httpclient.RetryPolicy, store broadcastStore, b *model.Broadcast, children *Children, meta *model.CrawlMetadata) error {
	// 1. upsert主行
	if err := httpclient.WithRetry(ctx, logger, "upsert直播", policy, func() error {
		return store.UpsertBroadcast(ctx, b)
	}); err != nil {
		return fmt.Errorf("upsert直播失败: %w", err)
	}

	// 2. 删旧子行：失败不中断后续插入
	if err := httpclient.WithRetry(ctx, logger, "删除子表旧行", policy, func() error {
		return store.DeleteChildren(ctx, b.ID)
	}); err != nil {
		logger.WithError(err).WithField("broadcast_id", b.ID).Warn("删除子表旧行失败，继续插入")
	}

	// 3. 插新子行（过滤无product_id的商品）
	filtered := *children
	filtered.Products = filterProducts(logger, b.ID, children.Products)
	if err := httpclient.WithRetry(ctx, logger, "插入子表", policy, func() error {
		return store.InsertChildren(ctx, b.ID, &filtered)
	}); err != nil {
		return fmt.Errorf("插入子表失败: %w", err)
	}

	// 4. 审计行
	if err := httpclient.WithRetry(ctx, logger, "插入审计行", policy, func() error {
		return store.InsertMetadata(ctx, meta)
	}); err != nil {
		return fmt.Errorf("插入审计行失败: %w", err)
	}
	return nil
}

// filterProducts 缺product_id的行丢弃并告警（非错误）
func filterProducts(logger *logrus.Logger, broadcastID int64, products []model.Product) []model.Product {
	kept := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.ProductID == "" {
			continue
		}
		kept = append(kept, p)
	}
	if dropped := len(products) - len(kept); dropped > 0 {
		logger.WithFields(logrus.Fields{
			"broadcast_id": broadcastID,
			"dropped":      dropped,
			"total":        len(products),
		}).Warn("丢弃缺少product_id的商品行")
	}
	return kept
}

// SaveErrorMetadata best-effort写审计行，失败仅记日志
func (r *broadcastRepository) SaveErrorMetadata(ctx context.Context, meta *model.CrawlMetadata) {
	if err := r.db.WithContext(ctx).Create(meta).Error; err != nil {
		r.logger.WithError(err).Warn("error状态审计行写入失败")
	}
}

// ========== broadcastStore的gorm实现 ==========

func (r *broadcastRepository) UpsertBroadcast(ctx context.Context, b *model.Broadcast) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "brand_name", "description", "status", "stand_by_image",
			"broadcast_date", "broadcast_end_date", "expected_start_date",
			"replay_url", "broadcast_url", "livebridge_url",
			"broadcast_type", "raw_data", "updated_at",
		}),
	}).Create(b).Error
}

func (r *broadcastRepository) DeleteChildren(ctx context.Context, broadcastID int64) error {
	db := r.db.WithContext(ctx)
	for _, m := range []any{&model.Product{}, &model.Coupon{}, &model.Benefit{}, &model.ChatMessage{}} {
		if err := db.Where("broadcast_id = ?", broadcastID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *broadcastRepository) InsertChildren(ctx context.Context, broadcastID int64, children *Children) error {
	db := r.db.WithContext(ctx)
	if len(children.Products) > 0 {
		if err := db.Create(&children.Products).Error; err != nil {
			return fmt.Errorf("插入商品失败: %w", err)
		}
	}
	if len(children.Coupons) > 0 {
		if err := db.Create(&children.Coupons).Error; err != nil {
			return fmt.Errorf("插入优惠券失败: %w", err)
		}
	}
	if len(children.Benefits) > 0 {
		if err := db.Create(&children.Benefits).Error; err != nil {
			return fmt.Errorf("插入权益失败: %w", err)
		}
	}
	if len(children.Chat) > 0 {
		if err := db.Create(&children.Chat).Error; err != nil {
			return fmt.Errorf("插入聊天失败: %w", err)
		}
	}
	return nil
}

func (r *broadcastRepository) InsertMetadata(ctx context.Context, meta *model.CrawlMetadata) error {
	return r.db.WithContext(ctx).Create(meta).Error
}

// ========== 查询接口 ==========

func (r *broadcastRepository) ListBroadcasts(ctx context.Context, filter BroadcastFilter, page, pageSize int) ([]*model.Broadcast, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Broadcast{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.BroadcastType != "" {
		db = db.Where("broadcast_type = ?", filter.BroadcastType)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.Broadcast
	if err := db.Order("updated_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *broadcastRepository) GetBroadcast(ctx context.Context, id int64) (*model.Broadcast, *Children, error) {
	var b model.Broadcast
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, nil, err
	}
	children := &Children{}
	db := r.db.WithContext(ctx)
	if err := db.Where("broadcast_id = ?", id).Find(&children.Products).Error; err != nil {
		return nil, nil, err
	}
	if err := db.Where("broadcast_id = ?", id).Find(&children.Coupons).Error; err != nil {
		return nil, nil, err
	}
	if err := db.Where("broadcast_id = ?", id).Find(&children.Benefits).Error; err != nil {
		return nil, nil, err
	}
	if err := db.Where("broadcast_id = ?", id).Find(&children.Chat).Error; err != nil {
		return nil, nil, err
	}
	return &b, children, nil
}
