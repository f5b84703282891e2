package offers

import (
	"strings"

	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type OfferRepo interface {
	// GetOrCreateByName reuses the oldest offer carrying name, so re-runs land on the same hierarchy.
	GetOrCreateByName(dbc dbctx.Context, name string) (*types.Offer, bool, error)
	SetSourceFilename(dbc dbctx.Context, offerID uint, filename string) error
	GetByID(dbc dbctx.Context, offerID uint) (*types.Offer, error)
	GetTree(dbc dbctx.Context, offerID uint) (*types.Offer, error)
	FirstGroup(dbc dbctx.Context, offerID uint) (*types.ProdGroup, error)
}

type offerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) OfferRepo {
	repoLog := baseLog.With("repo", "OfferRepo")
	return &offerRepo{db: db, log: repoLog}
}

func (r *offerRepo) GetOrCreateByName(dbc dbctx.Context, name string) (*types.Offer, bool, error) {
	transaction := dbc.Handle(r.db)
	name = strings.TrimSpace(name)

	var existing types.Offer
	err := transaction.Where("doc_name = ?", name).Order("id ASC").First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	offer := &types.Offer{DocName: name}
	if err := transaction.Create(offer).Error; err != nil {
		return nil, false, err
	}
	r.log.Debug("offer created", "offer_id", offer.ID, "doc_name", name)
	return offer, true, nil
}

func (r *offerRepo) SetSourceFilename(dbc dbctx.Context, offerID uint, filename string) error {
	transaction := dbc.Handle(r.db)
	return transaction.Model(&types.Offer{}).
		Where("id = ?", offerID).
		Update("source_filename", filename).Error
}

func (r *offerRepo) GetByID(dbc dbctx.Context, offerID uint) (*types.Offer, error) {
	transaction := dbc.Handle(r.db)
	var offer types.Offer
	if err := transaction.First(&offer, offerID).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepo) GetTree(dbc dbctx.Context, offerID uint) (*types.Offer, error) {
	transaction := dbc.Handle(r.db)
	var offer types.Offer
	err := transaction.
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("prod_group.id ASC") }).
		Preload("Groups.Variants", func(db *gorm.DB) *gorm.DB { return db.Order("prod_variant.id ASC") }).
		Preload("Groups.Variants.Components", func(db *gorm.DB) *gorm.DB { return db.Order("prod_variant_component.id ASC") }).
		Preload("Groups.Variants.Components.Component").
		First(&offer, offerID).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepo) FirstGroup(dbc dbctx.Context, offerID uint) (*types.ProdGroup, error) {
	transaction := dbc.Handle(r.db)
	var group types.ProdGroup
	if err := transaction.Where("offer_id = ?", offerID).Order("id ASC").First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}
