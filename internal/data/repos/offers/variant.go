package offers

import (
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type VariantFields struct {
	GroupID   uint
	VarNr     *string
	ShortText string
	LongText  *string
	PageFrom  *int
	PageTo    *int
}

type VariantRepo interface {
	// Upsert matches on (group_id, var_nr). Count is never touched.
	Upsert(dbc dbctx.Context, in VariantFields) (*types.ProdVariant, error)
	ListByOffer(dbc dbctx.Context, offerID uint) ([]*types.ProdVariant, error)
}

type variantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	repoLog := baseLog.With("repo", "VariantRepo")
	return &variantRepo{db: db, log: repoLog}
}

func (r *variantRepo) Upsert(dbc dbctx.Context, in VariantFields) (*types.ProdVariant, error) {
	transaction := dbc.Handle(r.db)
	key := NormalizeKey(in.VarNr)

	var row types.ProdVariant
	lookup := func() error {
		row = types.ProdVariant{}
		q := transaction.Where("group_id = ?", in.GroupID)
		return whereKey(q, "var_nr", key).First(&row).Error
	}

	err := lookup()
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if isNotFound(err) {
		row = types.ProdVariant{
			GroupID:   in.GroupID,
			VarNr:     key,
			ShortText: in.ShortText,
			LongText:  in.LongText,
			PageFrom:  in.PageFrom,
			PageTo:    in.PageTo,
		}
		created, err := createOrRecover(transaction, &row, lookup)
		if err != nil {
			return nil, err
		}
		if created {
			return &row, nil
		}
	}

	if err := transaction.Model(&row).Updates(map[string]any{
		"short_text": in.ShortText,
		"long_text":  in.LongText,
		"page_from":  in.PageFrom,
		"page_to":    in.PageTo,
	}).Error; err != nil {
		return nil, err
	}
	row.ShortText, row.LongText, row.PageFrom, row.PageTo = in.ShortText, in.LongText, in.PageFrom, in.PageTo
	return &row, nil
}

func (r *variantRepo) ListByOffer(dbc dbctx.Context, offerID uint) ([]*types.ProdVariant, error) {
	transaction := dbc.Handle(r.db)
	var results []*types.ProdVariant
	err := transaction.
		Joins("JOIN prod_group ON prod_group.id = prod_variant.group_id").
		Where("prod_group.offer_id = ?", offerID).
		Order("prod_variant.id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
