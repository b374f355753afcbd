package models

import (
	"time"

	"gorm.io/gorm"
)

// Dataset is a dataset row belonging to a publication. The UUID column holds
// the correlation token generated on each issuance attempt; it is overwritten,
// not appended, so at most one active token exists per publication.
type Dataset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	PublicationID uint    `gorm:"not null;index:idx_datasets_publication" json:"publicationId"`
	UUID          *string `gorm:"type:varchar(36)" json:"uuid,omitempty"`
}

// TableName specifies the table name.
func (Dataset) TableName() string {
	return "datasets"
}

// SetDatasetUUID overwrites the correlation token on all dataset rows for a
// publication. Returns the number of rows affected.
func SetDatasetUUID(db *gorm.DB, pubID uint, token string) (int64, error) {
	res := db.Model(&Dataset{}).
		Where("publication_id = ?", pubID).
		Update("uuid", token)
	return res.RowsAffected, res.Error
}
