package models

import (
	"time"

	"gorm.io/gorm"
)

// LegacyExcludedPublicationID is a record that predates the DOI workflow and
// is registered out of band. It must never be picked up by the pending scan.
const LegacyExcludedPublicationID uint = 12551

// Publication represents one published dataset record eligible for DOI
// issuance.
//
// DOI and ShortDOI stay nil until an issuance succeeds. Once
// DOIPublicationDate is set the row is excluded from all future pending
// scans.
type Publication struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title     string `gorm:"type:varchar(500)" json:"title"`
	Published bool   `gorm:"not null;default:false;index:idx_publications_published" json:"published"`

	// DOI issuance state
	DOIPublicationDate *time.Time `gorm:"column:doi_publication_date;index:idx_publications_doi_date" json:"doiPublicationDate,omitempty"`
	DOI                *string    `gorm:"type:varchar(255)" json:"doi,omitempty"`
	ShortDOI           *string    `gorm:"type:varchar(64)" json:"shortDoi,omitempty"`
}

// TableName specifies the table name.
func (Publication) TableName() string {
	return "publications"
}

// HasDOI returns true once a DOI has been recorded for the publication.
func (p *Publication) HasDOI() bool {
	return p.DOI != nil && *p.DOI != ""
}

// PendingPublicationIDs returns the IDs of all publications that are
// published, have no DOI publication date, have at least one dataset, and are
// not on the exclusion list. A fresh slice is returned on every call; result
// order is the store's natural order and is not guaranteed stable across
// runs.
//
// A nil or empty exclusion list falls back to the legacy excluded record.
func PendingPublicationIDs(db *gorm.DB, excludeIDs []uint) ([]uint, error) {
	if len(excludeIDs) == 0 {
		excludeIDs = []uint{LegacyExcludedPublicationID}
	}

	var ids []uint
	err := db.Raw(`
		SELECT pub.id
		FROM publications pub
		JOIN datasets ds ON ds.publication_id = pub.id
		WHERE pub.published = ?
		  AND pub.doi_publication_date IS NULL
		  AND pub.id NOT IN ?`,
		true, excludeIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkPublicationIssued records a confirmed DOI registration on the
// publication row: the registered DOI, the short-DOI alias, and the issuance
// date. Returns the number of rows affected.
func MarkPublicationIssued(db *gorm.DB, pubID uint, registeredDOI, shortDOI string, issuedOn time.Time) (int64, error) {
	res := db.Model(&Publication{}).
		Where("id = ?", pubID).
		Updates(map[string]interface{}{
			"doi":                  registeredDOI,
			"doi_publication_date": issuedOn,
			"short_doi":            shortDOI,
		})
	return res.RowsAffected, res.Error
}
