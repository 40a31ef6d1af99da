package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"voces_backend/internal/feature/recordings/domain/entity"
	"voces_backend/internal/feature/recordings/usecase"
	tagentity "voces_backend/internal/feature/tags/domain/entity"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&tagentity.Tag{}, &entity.Recording{}))
	return db
}

func seedTags(t *testing.T, db *gorm.DB, names ...string) []tagentity.Tag {
	t.Helper()
	tags := make([]tagentity.Tag, 0, len(names))
	for i, n := range names {
		tags = append(tags, tagentity.Tag{ID: "tag-" + n, Name: n, CreatedAt: time.Now().Add(time.Duration(i) * time.Second)})
	}
	require.NoError(t, db.Create(&tags).Error)
	return tags
}

func newRecording(title string, tags []tagentity.Tag) *entity.Recording {
	desc := "dawn chorus"
	return &entity.Recording{
		Title:       title,
		Description: &desc,
		FileURL:     "https://bucket.s3.us-east-1.amazonaws.com/" + title + ".wav",
		FileKey:     title + ".wav",
		Metadata:    map[string]any{"location": "Kyoto", "durationSec": float64(42)},
		Tags:        tags,
	}
}

func TestRecordingGorm_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRecordingGorm(db)
	tags := seedTags(t, db, "rain", "birds")

	rec := newRecording("morning", tags)
	require.NoError(t, repo.Create(ctx, rec))
	assert.Len(t, rec.ID, 36)

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "dawn chorus", *got.Description)
	assert.Equal(t, "Kyoto", got.Metadata["location"])
	assert.Equal(t, float64(42), got.Metadata["durationSec"])
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "birds", got.Tags[0].Name)
	assert.Equal(t, "rain", got.Tags[1].Name)

	var tagCount int64
	require.NoError(t, db.Model(&tagentity.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount, "tags must not be duplicated")

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, usecase.ErrRecordingNotFound)
}

func TestRecordingGorm_CreateWithoutMetadata(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordingGorm(setupTestDB(t))

	rec := &entity.Recording{Title: "plain", FileURL: "u", FileKey: "k"}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
	assert.Nil(t, got.Description)
	assert.Empty(t, got.Tags)
}

func TestRecordingGorm_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRecordingGorm(db)

	older := newRecording("older", nil)
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newRecording("newer", seedTags(t, db, "wind"))
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	recs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "newer", recs[0].Title)
	assert.Len(t, recs[0].Tags, 1)
	assert.Equal(t, "older", recs[1].Title)
}

func TestRecordingGorm_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("タグを置き換える", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRecordingGorm(db)
		tags := seedTags(t, db, "rain", "birds", "wind")
		rec := newRecording("morning", tags[:2])
		require.NoError(t, repo.Create(ctx, rec))

		rec.Title = "evening"
		rec.Metadata = map[string]any{"location": "Osaka"}
		rec.Tags = tags[2:]
		require.NoError(t, repo.Update(ctx, rec, true))

		got, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "evening", got.Title)
		assert.Equal(t, "Osaka", got.Metadata["location"])
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "wind", got.Tags[0].Name)
	})

	t.Run("replaceTags=falseならタグは変わらない", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRecordingGorm(db)
		rec := newRecording("morning", seedTags(t, db, "rain"))
		require.NoError(t, repo.Create(ctx, rec))

		rec.Tags = nil
		rec.Description = nil
		require.NoError(t, repo.Update(ctx, rec, false))

		got, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Len(t, got.Tags, 1)
		assert.Nil(t, got.Description)
	})

	t.Run("空のタグで関連をクリアする", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRecordingGorm(db)
		rec := newRecording("morning", seedTags(t, db, "rain"))
		require.NoError(t, repo.Create(ctx, rec))

		rec.Tags = []tagentity.Tag{}
		require.NoError(t, repo.Update(ctx, rec, true))

		got, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("存在しない録音", func(t *testing.T) {
		repo := NewRecordingGorm(setupTestDB(t))
		err := repo.Update(ctx, &entity.Recording{ID: "missing", Title: "x"}, false)
		assert.ErrorIs(t, err, usecase.ErrRecordingNotFound)
	})
}

func TestRecordingGorm_Delete(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRecordingGorm(db)
	rec := newRecording("morning", seedTags(t, db, "rain"))
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))

	_, err := repo.FindByID(ctx, rec.ID)
	assert.ErrorIs(t, err, usecase.ErrRecordingNotFound)

	var links int64
	require.NoError(t, db.Table("recording_tags").Count(&links).Error)
	assert.Zero(t, links)

	var tagCount int64
	require.NoError(t, db.Model(&tagentity.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(1), tagCount, "tags survive recording deletion")

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), usecase.ErrRecordingNotFound)
}
