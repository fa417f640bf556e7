package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LivebridgeRepository 预告页仓储。聚合根按url唯一键upsert
// （预告页可能先于直播id存在），子表与直播侧同一套先删后插。
type LivebridgeRepository interface {
	SaveRecord(ctx context.Context, record *model.LivebridgeRecord) error
	GetByURL(ctx context.Context, url string) (*model.Livebridge, error)
}

type livebridgeRepository struct {
	db     *gorm.DB
	policy httpclient.RetryPolicy
	logger *logrus.Logger
}

// NewLivebridgeRepository 创建预告页仓储
func NewLivebridgeRepository(db *gorm.DB, retryCount int, logger *logrus.Logger) LivebridgeRepository {
	return &livebridgeRepository{
		db:     db,
		policy: httpclient.DefaultPolicy(retryCount),
		logger: logger,
	}
}

// SaveRecord upsert聚合根后整体替换五张子表
func (r *livebridgeRepository) SaveRecord(ctx context.Context, record *model.LivebridgeRecord) error {
	row := r.toRow(record)

	if err := httpclient.WithRetry(ctx, r.logger, "upsert预告页", r.policy, func() error {
		return r.upsertBridge(ctx, row)
	}); err != nil {
		return fmt.Errorf("upsert预告页失败: %w", err)
	}

	if err := httpclient.WithRetry(ctx, r.logger, "删除预告页子行", r.policy, func() error {
		return r.deleteChildren(ctx, row.ID)
	}); err != nil {
		r.logger.WithError(err).WithField("livebridge_id", row.ID).Warn("删除预告页子行失败，继续插入")
	}

	if err := httpclient.WithRetry(ctx, r.logger, "插入预告页子行", r.policy, func() error {
		return r.insertChildren(ctx, row.ID, record)
	}); err != nil {
		return fmt.Errorf("插入预告页子行失败: %w", err)
	}
	return nil
}

func (r *livebridgeRepository) toRow(record *model.LivebridgeRecord) *model.Livebridge {
	row := &model.Livebridge{
		URL:          record.URL,
		BroadcastID:  record.BroadcastID,
		Title:        record.Title,
		BrandName:    record.BrandName,
		Nickname:     record.Nickname,
		StandByImage: record.StandByImage,
	}
	if record.ExpectedStartDate != "" {
		v := record.ExpectedStartDate
		row.ExpectedStartDate = &v
	}
	if raw, err := json.Marshal(record.Raw); err == nil {
		row.RawData = datatypes.JSON(raw)
	}
	return row
}

func (r *livebridgeRepository) upsertBridge(ctx context.Context, row *model.Livebridge) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"broadcast_id", "title", "brand_name", "nickname",
			"expected_start_date", "stand_by_image", "raw_data", "updated_at",
		}),
	}).Create(row).Error; err != nil {
		return err
	}
	// upsert走更新分支时拿不到自增id，按唯一键回查
	if row.ID == 0 {
		if err := r.db.WithContext(ctx).Model(row).Where("url = ?", row.URL).Select("id").First(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *livebridgeRepository) deleteChildren(ctx context.Context, livebridgeID uint64) error {
	db := r.db.WithContext(ctx)
	for _, m := range []any{
		&model.LivebridgeProduct{}, &model.LivebridgeSpecialCoupon{},
		&model.LivebridgeSimpleCoupon{}, &model.LivebridgeLiveBenefit{},
		&model.LivebridgeBenefitByAmount{},
	} {
		if err := db.Where("livebridge_id = ?", livebridgeID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *livebridgeRepository) insertChildren(ctx context.Context, livebridgeID uint64, record *model.LivebridgeRecord) error {
	db := r.db.WithContext(ctx)

	if len(record.Products) > 0 {
		rows := make([]model.LivebridgeProduct, 0, len(record.Products))
		for _, p := range record.Products {
			rows = append(rows, model.LivebridgeProduct{
				LivebridgeID:    livebridgeID,
				ProductID:       p.ProductID,
				Name:            p.Name,
				BrandName:       p.BrandName,
				AttachmentType:  p.AttachmentType,
				DiscountRate:    p.DiscountRate,
				DiscountedPrice: p.DiscountedPrice,
				ImageURL:        p.ImageURL,
				LinkURL:         p.LinkURL,
			})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("插入预告页商品失败: %w", err)
		}
	}

	if len(record.SpecialCoupons) > 0 {
		rows := make([]model.LivebridgeSpecialCoupon, 0, len(record.SpecialCoupons))
		for _, c := range record.SpecialCoupons {
			rows = append(rows, model.LivebridgeSpecialCoupon{
				LivebridgeID: livebridgeID,
				Title:        c.Title,
				BenefitUnit:  c.BenefitUnit,
				BenefitValue: c.BenefitValue,
			})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("插入专享券失败: %w", err)
		}
	}

	if len(record.SimpleCoupons) > 0 {
		rows := make([]model.LivebridgeSimpleCoupon, 0, len(record.SimpleCoupons))
		for _, text := range record.SimpleCoupons {
			rows = append(rows, model.LivebridgeSimpleCoupon{LivebridgeID: livebridgeID, Text: text})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("插入简化券失败: %w", err)
		}
	}

	if len(record.LiveBenefits) > 0 {
		rows := make([]model.LivebridgeLiveBenefit, 0, len(record.LiveBenefits))
		for _, msg := range record.LiveBenefits {
			rows = append(rows, model.LivebridgeLiveBenefit{LivebridgeID: livebridgeID, Message: msg})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("插入直播权益失败: %w", err)
		}
	}

	if len(record.BenefitsByAmount) > 0 {
		rows := make([]model.LivebridgeBenefitByAmount, 0, len(record.BenefitsByAmount))
		for _, b := range record.BenefitsByAmount {
			rows = append(rows, model.LivebridgeBenefitByAmount{LivebridgeID: livebridgeID, Amount: b.Amount, Message: b.Message})
		}
		if err := db.Create(&rows).Error; err != nil {
			return fmt.Errorf("插入阶梯权益失败: %w", err)
		}
	}
	return nil
}

func (r *livebridgeRepository) GetByURL(ctx context.Context, url string) (*model.Livebridge, error) {
	var row model.Livebridge
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
