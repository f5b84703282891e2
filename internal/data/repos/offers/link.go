package offers

import (
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LinkRepo interface {
	// Upsert is existence-checked: a duplicate (variant, component) pair is a no-op.
	Upsert(dbc dbctx.Context, variantID, componentID uint) (*types.ProdVariantComponent, bool, error)
	CountByVariant(dbc dbctx.Context, variantID uint) (int64, error)
}

type linkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLinkRepo(db *gorm.DB, baseLog *logger.Logger) LinkRepo {
	repoLog := baseLog.With("repo", "LinkRepo")
	return &linkRepo{db: db, log: repoLog}
}

func (r *linkRepo) Upsert(dbc dbctx.Context, variantID, componentID uint) (*types.ProdVariantComponent, bool, error) {
	transaction := dbc.Handle(r.db)

	var row types.ProdVariantComponent
	err := transaction.
		Where("prod_variant_id = ? AND component_id = ?", variantID, componentID).
		First(&row).Error
	if err == nil {
		return &row, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	row = types.ProdVariantComponent{ProdVariantID: variantID, ComponentID: componentID}
	res := transaction.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "prod_variant_id"}, {Name: "component_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	return &row, res.RowsAffected > 0, nil
}

func (r *linkRepo) CountByVariant(dbc dbctx.Context, variantID uint) (int64, error) {
	transaction := dbc.Handle(r.db)
	var n int64
	err := transaction.Model(&types.ProdVariantComponent{}).Where("prod_variant_id = ?", variantID).Count(&n).Error
	return n, err
}
