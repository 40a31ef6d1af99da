package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voces_backend/internal/api"
	"voces_backend/internal/feature/tags/domain/entity"
	"voces_backend/internal/feature/tags/usecase"
)

type mockTagUsecase struct {
	ListFunc   func(ctx context.Context) ([]entity.Tag, error)
	GetFunc    func(ctx context.Context, id string) (*entity.Tag, error)
	CreateFunc func(ctx context.Context, name string) (*entity.Tag, error)
	RenameFunc func(ctx context.Context, id, name string) (*entity.Tag, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *mockTagUsecase) List(ctx context.Context) ([]entity.Tag, error) {
	return m.ListFunc(ctx)
}

func (m *mockTagUsecase) Get(ctx context.Context, id string) (*entity.Tag, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockTagUsecase) Create(ctx context.Context, name string) (*entity.Tag, error) {
	return m.CreateFunc(ctx, name)
}

func (m *mockTagUsecase) Rename(ctx context.Context, id, name string) (*entity.Tag, error) {
	return m.RenameFunc(ctx, id, name)
}

func (m *mockTagUsecase) Delete(ctx context.Context, id string) error {
	return m.DeleteFunc(ctx, id)
}

func newTestRouter(uc TagUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTagHandler(uc)
	r := gin.New()
	r.GET("/tags", h.List)
	r.GET("/tags/:id", h.Get)
	r.POST("/tags", h.Create)
	r.PUT("/tags/:id", h.Update)
	r.DELETE("/tags/:id", h.Delete)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestTagHandler_List(t *testing.T) {
	t.Run("正常系", func(t *testing.T) {
		r := newTestRouter(&mockTagUsecase{
			ListFunc: func(ctx context.Context) ([]entity.Tag, error) {
				return []entity.Tag{{ID: "1", Name: "birds"}, {ID: "2", Name: "rain"}}, nil
			},
		})
		w := do(r, http.MethodGet, "/tags", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got []api.Tag
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "birds", got[0].Name)
	})

	t.Run("空の場合は[]を返す", func(t *testing.T) {
		r := newTestRouter(&mockTagUsecase{
			ListFunc: func(ctx context.Context) ([]entity.Tag, error) { return nil, nil },
		})
		w := do(r, http.MethodGet, "/tags", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("異常系: 内部エラーは詳細を返さない", func(t *testing.T) {
		r := newTestRouter(&mockTagUsecase{
			ListFunc: func(ctx context.Context) ([]entity.Tag, error) { return nil, errors.New("db down") },
		})
		w := do(r, http.MethodGet, "/tags", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, msgInternalServerError, decodeError(t, w))
	})
}

func TestTagHandler_Get(t *testing.T) {
	r := newTestRouter(&mockTagUsecase{
		GetFunc: func(ctx context.Context, id string) (*entity.Tag, error) {
			if id == "1" {
				return &entity.Tag{ID: "1", Name: "birds"}, nil
			}
			return nil, usecase.ErrTagNotFound
		},
	})

	w := do(r, http.MethodGet, "/tags/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/tags/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgTagNotFound, decodeError(t, w))
}

func TestTagHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantError  string
	}{
		{name: "正常系", body: `{"name":"birds"}`, wantStatus: http.StatusCreated},
		{name: "異常系: nameなし", body: `{}`, wantStatus: http.StatusBadRequest, wantError: msgTagNameRequired},
		{name: "異常系: 不正なJSON", body: `{`, wantStatus: http.StatusBadRequest, wantError: msgTagNameRequired},
		{name: "異常系: 空白のみ", body: `{"name":"  "}`, createErr: usecase.ErrTagNameRequired, wantStatus: http.StatusBadRequest, wantError: msgTagNameRequired},
		{name: "異常系: 重複", body: `{"name":"birds"}`, createErr: usecase.ErrTagNameTaken, wantStatus: http.StatusConflict, wantError: msgTagNameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&mockTagUsecase{
				CreateFunc: func(ctx context.Context, name string) (*entity.Tag, error) {
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &entity.Tag{ID: "1", Name: name}, nil
				},
			})
			w := do(r, http.MethodPost, "/tags", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, w))
				return
			}
			var got api.Tag
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, "birds", got.Name)
		})
	}
}

func TestTagHandler_Update(t *testing.T) {
	r := newTestRouter(&mockTagUsecase{
		RenameFunc: func(ctx context.Context, id, name string) (*entity.Tag, error) {
			switch id {
			case "1":
				return &entity.Tag{ID: id, Name: name}, nil
			case "2":
				return nil, usecase.ErrTagNameTaken
			}
			return nil, usecase.ErrTagNotFound
		},
	})

	w := do(r, http.MethodPut, "/tags/1", `{"name":"storm"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"storm"`)

	w = do(r, http.MethodPut, "/tags/2", `{"name":"storm"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPut, "/tags/3", `{"name":"storm"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagHandler_Delete(t *testing.T) {
	r := newTestRouter(&mockTagUsecase{
		DeleteFunc: func(ctx context.Context, id string) error {
			if id == "1" {
				return nil
			}
			return usecase.ErrTagNotFound
		},
	})

	w := do(r, http.MethodDelete, "/tags/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodDelete, "/tags/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
