package domain

import "github.com/yungbote/lvflow-backend/internal/domain/offers"

type Offer = offers.Offer
type ProdGroup = offers.ProdGroup
type ProdVariant = offers.ProdVariant
type Component = offers.Component
type ProdVariantComponent = offers.ProdVariantComponent
type IngestCounts = offers.IngestCounts
