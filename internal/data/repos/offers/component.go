package offers

import (
	"fmt"
	"strings"

	types "github.com/yungbote/lvflow-backend/internal/domain"
	"github.com/yungbote/lvflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ComponentRepo interface {
	// GetOrCreate dedupes store-wide on the exact trimmed description.
	GetOrCreate(dbc dbctx.Context, description string) (*types.Component, error)
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, baseLog *logger.Logger) ComponentRepo {
	repoLog := baseLog.With("repo", "ComponentRepo")
	return &componentRepo{db: db, log: repoLog}
}

func (r *componentRepo) GetOrCreate(dbc dbctx.Context, description string) (*types.Component, error) {
	transaction := dbc.Handle(r.db)
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("component description is empty")
	}

	var row types.Component
	err := transaction.Where("description = ?", description).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	row = types.Component{Description: description}
	res := transaction.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "description"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent scope inserted it first.
		row = types.Component{}
		if err := transaction.Where("description = ?", description).First(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}
