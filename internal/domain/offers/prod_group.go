package offers

import "time"

// ProdGroup is a titled section of an offer. (offer_id, group_nr) is unique, null group_nr included.
type ProdGroup struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID  uint    `gorm:"column:offer_id;not null;index" json:"offer_id"`
	GroupNr  *string `gorm:"column:group_nr" json:"group_nr,omitempty"`
	Title    string  `gorm:"column:title;not null" json:"title"`
	PageFrom *int    `gorm:"column:page_from" json:"page_from,omitempty"`
	PageTo   *int    `gorm:"column:page_to" json:"page_to,omitempty"`

	Variants []*ProdVariant `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProdGroup) TableName() string { return "prod_group" }
