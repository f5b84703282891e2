package offers

import "time"

// ProdVariant is a concrete item of a group. (group_id, var_nr) is unique, null var_nr included.
type ProdVariant struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID   uint    `gorm:"column:group_id;not null;index" json:"group_id"`
	VarNr     *string `gorm:"column:var_nr" json:"var_nr,omitempty"`
	ShortText string  `gorm:"column:short_text;not null" json:"short_text"`
	LongText  *string `gorm:"column:long_text" json:"long_text,omitempty"`
	PageFrom  *int    `gorm:"column:page_from" json:"page_from,omitempty"`
	PageTo    *int    `gorm:"column:page_to" json:"page_to,omitempty"`
	// Count is carried for manual editing; ingestion never writes it.
	Count *int `gorm:"column:count" json:"count,omitempty"`

	Components []*ProdVariantComponent `gorm:"foreignKey:ProdVariantID;references:ID;constraint:OnDelete:CASCADE" json:"components,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProdVariant) TableName() string { return "prod_variant" }
