package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database unique to the calling test and
// migrates the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(ModelsToAutoMigrate()...))
	return db
}

func seedPublication(t *testing.T, db *gorm.DB, id uint, published bool, doiDate *time.Time) {
	t.Helper()

	pub := Publication{
		ID:                 id,
		Title:              fmt.Sprintf("dataset %d", id),
		Published:          published,
		DOIPublicationDate: doiDate,
	}
	require.NoError(t, db.Create(&pub).Error)
	require.NoError(t, db.Create(&Dataset{PublicationID: id}).Error)
}

func TestPendingPublicationIDs(t *testing.T) {
	t.Run("returns only published records without an issuance date", func(t *testing.T) {
		db := newTestDB(t)

		now := time.Now()
		seedPublication(t, db, 1, true, nil)  // pending
		seedPublication(t, db, 2, true, &now) // already issued
		seedPublication(t, db, 3, false, nil) // not published

		ids, err := PendingPublicationIDs(db, nil)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, ids)
	})

	t.Run("skips excluded IDs", func(t *testing.T) {
		db := newTestDB(t)

		seedPublication(t, db, 1, true, nil)
		seedPublication(t, db, 2, true, nil)

		ids, err := PendingPublicationIDs(db, []uint{2})
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, ids)
	})

	t.Run("skips the legacy record by default", func(t *testing.T) {
		db := newTestDB(t)

		seedPublication(t, db, LegacyExcludedPublicationID, true, nil)
		seedPublication(t, db, 7, true, nil)

		ids, err := PendingPublicationIDs(db, nil)
		require.NoError(t, err)
		assert.Equal(t, []uint{7}, ids)
	})

	t.Run("skips publications without datasets", func(t *testing.T) {
		db := newTestDB(t)

		require.NoError(t, db.Create(&Publication{ID: 4, Published: true}).Error)

		ids, err := PendingPublicationIDs(db, nil)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("returns a fresh slice on each call", func(t *testing.T) {
		db := newTestDB(t)

		seedPublication(t, db, 1, true, nil)

		first, err := PendingPublicationIDs(db, nil)
		require.NoError(t, err)
		second, err := PendingPublicationIDs(db, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, second, 1)
	})
}

func TestMarkPublicationIssued(t *testing.T) {
	db := newTestDB(t)

	seedPublication(t, db, 1, true, nil)

	issuedOn := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	rows, err := MarkPublicationIssued(db, 1, "10.20393/abc", "10/xyz", issuedOn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var pub Publication
	require.NoError(t, db.First(&pub, 1).Error)
	require.NotNil(t, pub.DOI)
	assert.Equal(t, "10.20393/abc", *pub.DOI)
	require.NotNil(t, pub.ShortDOI)
	assert.Equal(t, "10/xyz", *pub.ShortDOI)
	require.NotNil(t, pub.DOIPublicationDate)
	assert.True(t, pub.HasDOI())

	// Issued publications drop out of the pending scan.
	ids, err := PendingPublicationIDs(db, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetDatasetUUID(t *testing.T) {
	t.Run("overwrites the token on every issuance", func(t *testing.T) {
		db := newTestDB(t)

		seedPublication(t, db, 1, true, nil)

		rows, err := SetDatasetUUID(db, 1, "first-token")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		rows, err = SetDatasetUUID(db, 1, "second-token")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		var ds Dataset
		require.NoError(t, db.Where("publication_id = ?", 1).First(&ds).Error)
		require.NotNil(t, ds.UUID)
		assert.Equal(t, "second-token", *ds.UUID)
	})

	t.Run("affects zero rows for unknown publication", func(t *testing.T) {
		db := newTestDB(t)

		rows, err := SetDatasetUUID(db, 99, "token")
		require.NoError(t, err)
		assert.Zero(t, rows)
	})
}
