package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

// StampRepository 印章与用印记录数据访问
type StampRepository struct {
	db *gorm.DB
}

func NewStampRepository(db *gorm.DB) *StampRepository {
	return &StampRepository{db: db}
}

// FindCatalogStamp 按ID查找印章
func (r *StampRepository) FindCatalogStamp(ctx context.Context, id string) (*entity.CatalogStamp, error) {
	var stamp entity.CatalogStamp
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&stamp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &stamp, nil
}

// ListActiveCatalogStamps 列出全部启用的印章
func (r *StampRepository) ListActiveCatalogStamps(ctx context.Context) ([]entity.CatalogStamp, error) {
	var stamps []entity.CatalogStamp
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&stamps).Error
	return stamps, err
}

// CreateCatalogStamp 创建印章
func (r *StampRepository) CreateCatalogStamp(ctx context.Context, stamp *entity.CatalogStamp) error {
	return r.db.WithContext(ctx).Create(stamp).Error
}

// CreatePlacementsTx 在事务内批量保存用印记录
func (r *StampRepository) CreatePlacementsTx(tx *gorm.DB, placements []entity.StampPlacement) error {
	if len(placements) == 0 {
		return nil
	}
	return tx.Create(&placements).Error
}

// ListPlacementsByDocument 列出公文的用印记录
func (r *StampRepository) ListPlacementsByDocument(ctx context.Context, documentID string) ([]entity.StampPlacement, error) {
	var placements []entity.StampPlacement
	err := r.db.WithContext(ctx).
		Preload("Stamp").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&placements).Error
	return placements, err
}
