package offers

import "time"

// Offer is one ingested vendor document. Deleting it cascades to the whole hierarchy.
type Offer struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	DocName        string  `gorm:"column:doc_name;not null;index" json:"doc_name"`
	SourceFilename *string `gorm:"column:source_filename" json:"source_filename,omitempty"`

	Groups []*ProdGroup `gorm:"foreignKey:OfferID;references:ID;constraint:OnDelete:CASCADE" json:"groups,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Offer) TableName() string { return "offer" }
