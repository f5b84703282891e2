package offers

import (
	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type GroupFields struct {
	OfferID  uint
	GroupNr  *string
	Title    string
	PageFrom *int
	PageTo   *int
}

type GroupRepo interface {
	// Upsert matches on (offer_id, group_nr), a nil group_nr matching the offer's null-key row.
	Upsert(dbc dbctx.Context, in GroupFields) (*types.ProdGroup, error)
	ListByOffer(dbc dbctx.Context, offerID uint) ([]*types.ProdGroup, error)
}

type groupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, baseLog *logger.Logger) GroupRepo {
	repoLog := baseLog.With("repo", "GroupRepo")
	return &groupRepo{db: db, log: repoLog}
}

func (r *groupRepo) Upsert(dbc dbctx.Context, in GroupFields) (*types.ProdGroup, error) {
	transaction := dbc.Handle(r.db)
	key := NormalizeKey(in.GroupNr)

	var row types.ProdGroup
	lookup := func() error {
		row = types.ProdGroup{}
		q := transaction.Where("offer_id = ?", in.OfferID)
		return whereKey(q, "group_nr", key).First(&row).Error
	}

	err := lookup()
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if isNotFound(err) {
		row = types.ProdGroup{
			OfferID:  in.OfferID,
			GroupNr:  key,
			Title:    in.Title,
			PageFrom: in.PageFrom,
			PageTo:   in.PageTo,
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
		"title":     in.Title,
		"page_from": in.PageFrom,
		"page_to":   in.PageTo,
	}).Error; err != nil {
		return nil, err
	}
	row.Title, row.PageFrom, row.PageTo = in.Title, in.PageFrom, in.PageTo
	return &row, nil
}

func (r *groupRepo) ListByOffer(dbc dbctx.Context, offerID uint) ([]*types.ProdGroup, error) {
	transaction := dbc.Handle(r.db)
	var results []*types.ProdGroup
	if err := transaction.Where("offer_id = ?", offerID).Order("id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
