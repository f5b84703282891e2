package offers

import (
	"gorm.io/gorm"

	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

// Repos bundles the hierarchy repos over one database handle.
type Repos struct {
	Offers     OfferRepo
	Groups     GroupRepo
	Variants   VariantRepo
	Components ComponentRepo
	Links      LinkRepo
}

func NewRepos(db *gorm.DB, baseLog *logger.Logger) Repos {
	return Repos{
		Offers:     NewOfferRepo(db, baseLog),
		Groups:     NewGroupRepo(db, baseLog),
		Variants:   NewVariantRepo(db, baseLog),
		Components: NewComponentRepo(db, baseLog),
		Links:      NewLinkRepo(db, baseLog),
	}
}
