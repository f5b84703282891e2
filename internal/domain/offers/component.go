package offers

import "time"

// Component is deduplicated store-wide by trimmed description.
type Component struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Description string `gorm:"column:description;not null" json:"description"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Component) TableName() string { return "component" }

type ProdVariantComponent struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProdVariantID uint       `gorm:"column:prod_variant_id;not null;index" json:"prod_variant_id"`
	ComponentID   uint       `gorm:"column:component_id;not null;index" json:"component_id"`
	Component     *Component `gorm:"foreignKey:ComponentID;references:ID;constraint:OnDelete:CASCADE" json:"component,omitempty"`
	Count         *int       `gorm:"column:count" json:"count,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ProdVariantComponent) TableName() string { return "prod_variant_component" }
