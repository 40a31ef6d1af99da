package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voces_backend/internal/feature/recordings/domain/entity"
	tagentity "voces_backend/internal/feature/tags/domain/entity"
)

type mockRecordingRepository struct {
	ListFunc     func(ctx context.Context) ([]entity.Recording, error)
	FindByIDFunc func(ctx context.Context, id string) (*entity.Recording, error)
	CreateFunc   func(ctx context.Context, rec *entity.Recording) error
	UpdateFunc   func(ctx context.Context, rec *entity.Recording, replaceTags bool) error
	DeleteFunc   func(ctx context.Context, id string) error
}

func (m *mockRecordingRepository) List(ctx context.Context) ([]entity.Recording, error) {
	return m.ListFunc(ctx)
}

func (m *mockRecordingRepository) FindByID(ctx context.Context, id string) (*entity.Recording, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockRecordingRepository) Create(ctx context.Context, rec *entity.Recording) error {
	return m.CreateFunc(ctx, rec)
}

func (m *mockRecordingRepository) Update(ctx context.Context, rec *entity.Recording, replaceTags bool) error {
	return m.UpdateFunc(ctx, rec, replaceTags)
}

func (m *mockRecordingRepository) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

// fakeStorage は呼び出し順を記録するObjectStorageです。
type fakeStorage struct {
	configured bool
	uploadErr  error
	deleteErr  error
	calls      []string
	uploaded   map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{configured: true, uploaded: map[string]string{}}
}

func (s *fakeStorage) Configured() bool { return s.configured }

func (s *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	s.calls = append(s.calls, "upload:"+key+":"+contentType)
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	b, _ := io.ReadAll(body)
	s.uploaded[key] = string(b)
	return "https://files.example.com/" + key, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.calls = append(s.calls, "delete:"+key)
	return s.deleteErr
}

type fakeTags struct {
	calls [][]string
	err   error
}

func (f *fakeTags) EnsureByNames(ctx context.Context, names []string) ([]tagentity.Tag, error) {
	f.calls = append(f.calls, names)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]tagentity.Tag, 0, len(names))
	for _, n := range names {
		out = append(out, tagentity.Tag{ID: "tag-" + n, Name: n})
	}
	return out, nil
}

func upload(name, body string) *entity.Upload {
	return &entity.Upload{Filename: name, ContentType: "audio/wav", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func newTestUsecase(repo RecordingRepository, storage *fakeStorage, tags *fakeTags) *recordingUsecase {
	uc := NewRecordingUsecase(repo, storage, tags)
	n := 0
	uc.newKey = func(filename string) string {
		n++
		return "key" + string(rune('0'+n)) + ".wav"
	}
	return uc
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("dawn.chorus.WAV")
	assert.True(t, strings.HasSuffix(key, ".WAV"))
	assert.Len(t, key, 36+4)

	assert.Len(t, ObjectKey("noext"), 36)
	assert.NotEqual(t, ObjectKey("a.wav"), ObjectKey("a.wav"))
}

func TestRecordingUsecase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: アップロードしてタグ付きで保存する", func(t *testing.T) {
		storage := newFakeStorage()
		tags := &fakeTags{}
		var saved *entity.Recording
		uc := newTestUsecase(&mockRecordingRepository{
			CreateFunc: func(ctx context.Context, rec *entity.Recording) error {
				saved = rec
				rec.ID = "rec-1"
				return nil
			},
		}, storage, tags)

		rec, err := uc.Create(ctx, CreateInput{
			Title:    "  morning ",
			Metadata: map[string]any{"k": "v"},
			Tags:     []string{"birds", "rain"},
			File:     upload("dawn.wav", "RIFF"),
		})
		require.NoError(t, err)
		assert.Equal(t, "rec-1", rec.ID)
		assert.Equal(t, "morning", saved.Title)
		assert.Equal(t, "key1.wav", saved.FileKey)
		assert.Equal(t, "https://files.example.com/key1.wav", saved.FileURL)
		assert.Len(t, saved.Tags, 2)
		assert.Equal(t, []string{"upload:key1.wav:audio/wav"}, storage.calls)
		assert.Equal(t, "RIFF", storage.uploaded["key1.wav"])
	})

	t.Run("タグなしではEnsureByNamesを呼ばない", func(t *testing.T) {
		tags := &fakeTags{}
		uc := newTestUsecase(&mockRecordingRepository{
			CreateFunc: func(ctx context.Context, rec *entity.Recording) error { return nil },
		}, newFakeStorage(), tags)

		rec, err := uc.Create(ctx, CreateInput{Title: "t", File: upload("a.mp3", "x")})
		require.NoError(t, err)
		assert.Empty(t, tags.calls)
		assert.NotNil(t, rec.Tags)
	})

	t.Run("Content-Typeが空ならoctet-stream", func(t *testing.T) {
		storage := newFakeStorage()
		uc := newTestUsecase(&mockRecordingRepository{
			CreateFunc: func(ctx context.Context, rec *entity.Recording) error { return nil },
		}, storage, &fakeTags{})

		f := upload("a.bin", "x")
		f.ContentType = ""
		_, err := uc.Create(ctx, CreateInput{Title: "t", File: f})
		require.NoError(t, err)
		assert.Equal(t, []string{"upload:key1.wav:application/octet-stream"}, storage.calls)
	})

	t.Run("異常系: タイトルまたはファイルがない", func(t *testing.T) {
		uc := newTestUsecase(&mockRecordingRepository{}, newFakeStorage(), &fakeTags{})

		_, err := uc.Create(ctx, CreateInput{Title: " ", File: upload("a.wav", "x")})
		assert.ErrorIs(t, err, ErrTitleAndFileRequired)

		_, err = uc.Create(ctx, CreateInput{Title: "t"})
		assert.ErrorIs(t, err, ErrTitleAndFileRequired)
	})

	t.Run("異常系: バケット未設定", func(t *testing.T) {
		storage := newFakeStorage()
		storage.configured = false
		uc := newTestUsecase(&mockRecordingRepository{}, storage, &fakeTags{})

		_, err := uc.Create(ctx, CreateInput{Title: "t", File: upload("a.wav", "x")})
		assert.ErrorIs(t, err, ErrStorageNotConfigured)
		assert.Empty(t, storage.calls)
	})

	t.Run("異常系: アップロード失敗", func(t *testing.T) {
		storage := newFakeStorage()
		storage.uploadErr = errors.New("s3 down")
		uc := newTestUsecase(&mockRecordingRepository{}, storage, &fakeTags{})

		_, err := uc.Create(ctx, CreateInput{Title: "t", File: upload("a.wav", "x")})
		assert.ErrorIs(t, err, storage.uploadErr)
	})

	t.Run("異常系: 保存失敗時はアップロード済みオブジェクトを削除する", func(t *testing.T) {
		storage := newFakeStorage()
		dbErr := errors.New("db down")
		uc := newTestUsecase(&mockRecordingRepository{
			CreateFunc: func(ctx context.Context, rec *entity.Recording) error { return dbErr },
		}, storage, &fakeTags{})

		_, err := uc.Create(ctx, CreateInput{Title: "t", File: upload("a.wav", "x")})
		assert.ErrorIs(t, err, dbErr)
		assert.Equal(t, []string{"upload:key1.wav:audio/wav", "delete:key1.wav"}, storage.calls)
	})
}

func existing() *entity.Recording {
	desc := "old"
	return &entity.Recording{
		ID:          "rec-1",
		Title:       "morning",
		Description: &desc,
		FileURL:     "https://files.example.com/old.wav",
		FileKey:     "old.wav",
		Tags:        []tagentity.Tag{{ID: "tag-rain", Name: "rain"}},
	}
}

func TestRecordingUsecase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("新しいファイルは古いオブジェクトを削除してからアップロードする", func(t *testing.T) {
		storage := newFakeStorage()
		var saved *entity.Recording
		var replaced bool
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
			UpdateFunc: func(ctx context.Context, rec *entity.Recording, replaceTags bool) error {
				saved, replaced = rec, replaceTags
				return nil
			},
		}, storage, &fakeTags{})

		_, err := uc.Update(ctx, "rec-1", UpdateInput{File: upload("new.wav", "x")})
		require.NoError(t, err)
		assert.Equal(t, []string{"delete:old.wav", "upload:key1.wav:audio/wav"}, storage.calls)
		assert.Equal(t, "key1.wav", saved.FileKey)
		assert.Equal(t, "https://files.example.com/key1.wav", saved.FileURL)
		assert.False(t, replaced)
		assert.Equal(t, "morning", saved.Title)
		assert.Equal(t, "old", *saved.Description)
	})

	t.Run("タグ指定時は置き換える", func(t *testing.T) {
		tags := &fakeTags{}
		var saved *entity.Recording
		var replaced bool
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
			UpdateFunc: func(ctx context.Context, rec *entity.Recording, replaceTags bool) error {
				saved, replaced = rec, replaceTags
				return nil
			},
		}, newFakeStorage(), tags)

		title := "evening"
		_, err := uc.Update(ctx, "rec-1", UpdateInput{Title: &title, Tags: []string{"wind"}, Metadata: map[string]any{"a": 1.0}})
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.Equal(t, "evening", saved.Title)
		require.Len(t, saved.Tags, 1)
		assert.Equal(t, "wind", saved.Tags[0].Name)
		assert.Equal(t, 1.0, saved.Metadata["a"])
	})

	t.Run("空のタグ配列は全タグを外す", func(t *testing.T) {
		var saved *entity.Recording
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
			UpdateFunc: func(ctx context.Context, rec *entity.Recording, replaceTags bool) error {
				saved = rec
				assert.True(t, replaceTags)
				return nil
			},
		}, newFakeStorage(), &fakeTags{})

		_, err := uc.Update(ctx, "rec-1", UpdateInput{Tags: []string{}})
		require.NoError(t, err)
		assert.Empty(t, saved.Tags)
	})

	t.Run("異常系: 存在しない", func(t *testing.T) {
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return nil, ErrRecordingNotFound },
		}, newFakeStorage(), &fakeTags{})

		_, err := uc.Update(ctx, "missing", UpdateInput{})
		assert.ErrorIs(t, err, ErrRecordingNotFound)
	})

	t.Run("異常系: 空のタイトル", func(t *testing.T) {
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
		}, newFakeStorage(), &fakeTags{})

		empty := "  "
		_, err := uc.Update(ctx, "rec-1", UpdateInput{Title: &empty})
		assert.ErrorIs(t, err, ErrTitleEmpty)
	})

	t.Run("異常系: ファイル差し替え時にバケット未設定", func(t *testing.T) {
		storage := newFakeStorage()
		storage.configured = false
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
		}, storage, &fakeTags{})

		_, err := uc.Update(ctx, "rec-1", UpdateInput{File: upload("a.wav", "x")})
		assert.ErrorIs(t, err, ErrStorageNotConfigured)
		assert.Empty(t, storage.calls)
	})
}

func TestRecordingUsecase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("オブジェクトを先に削除する", func(t *testing.T) {
		storage := newFakeStorage()
		var order []string
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
			DeleteFunc: func(ctx context.Context, id string) error {
				order = append(order, storage.calls...)
				order = append(order, "row:"+id)
				return nil
			},
		}, storage, &fakeTags{})

		require.NoError(t, uc.Delete(ctx, "rec-1"))
		assert.Equal(t, []string{"delete:old.wav", "row:rec-1"}, order)
	})

	t.Run("オブジェクト削除失敗時は行を残す", func(t *testing.T) {
		storage := newFakeStorage()
		storage.deleteErr = errors.New("s3 down")
		rowDeleted := false
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
			DeleteFunc: func(ctx context.Context, id string) error {
				rowDeleted = true
				return nil
			},
		}, storage, &fakeTags{})

		err := uc.Delete(ctx, "rec-1")
		assert.ErrorIs(t, err, storage.deleteErr)
		assert.False(t, rowDeleted)
	})

	t.Run("異常系: 存在しない", func(t *testing.T) {
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return nil, ErrRecordingNotFound },
		}, newFakeStorage(), &fakeTags{})

		assert.ErrorIs(t, uc.Delete(ctx, "missing"), ErrRecordingNotFound)
	})

	t.Run("異常系: バケット未設定", func(t *testing.T) {
		storage := newFakeStorage()
		storage.configured = false
		uc := newTestUsecase(&mockRecordingRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.Recording, error) { return existing(), nil },
		}, storage, &fakeTags{})

		assert.ErrorIs(t, uc.Delete(ctx, "rec-1"), ErrStorageNotConfigured)
	})
}
