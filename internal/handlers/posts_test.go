package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/media"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/repository"
	"github.com/emilythestrangee/forum/backend/internal/testutil"
)

// recordingStorage remembers the context of the last Store call.
type recordingStorage struct {
	ctx context.Context
}

func (s *recordingStorage) Store(ctx context.Context, kind media.Kind, _ []byte, _ string) (string, error) {
	s.ctx = ctx
	return "/uploads/" + string(kind) + "s/stored", nil
}

func (s *recordingStorage) Remove(context.Context, string) error { return nil }

func multipartPost(t *testing.T, fields map[string]string, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="upload"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func runCreatePost(h *PostHandler, req *http.Request, userID int) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID}))
	h.CreatePost(c)
	return w
}

func TestCreatePost_BodyOverCapIsUploadError(t *testing.T) {
	h := NewPostHandler(Deps{
		Repos:       &repository.Repositories{},
		Media:       &recordingStorage{},
		Log:         logging.New(io.Discard, false),
		MaxPostBody: 1 << 10,
	})

	req := multipartPost(t, map[string]string{"title": "big", "content": "body"}, "video", "video/mp4", make([]byte, 4<<10))
	w := runCreatePost(h, req, 1)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UPLOAD_ERROR", resp.Code)
	assert.Equal(t, "File size exceeds 50MB limit", resp.Error)
}

func TestNewHandler_DefaultPostBodyFitsLargestVideo(t *testing.T) {
	h := NewHandler(Deps{Repos: &repository.Repositories{}, Log: logging.New(io.Discard, false)})
	assert.Equal(t, int64(media.MaxVideoSize+formOverhead), h.Post.maxBody)
}

func TestCreatePost_StoreDeadlineStartsAfterBody(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.New(db)
	u := &models.User{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, repos.Users.Create(context.Background(), u))

	storage := &recordingStorage{}
	h := NewHandler(Deps{
		Repos:          repos,
		Media:          storage,
		Log:            logging.New(io.Discard, false),
		RequestTimeout: time.Hour,
	}).Post

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	req := multipartPost(t, map[string]string{"title": "with image", "content": "body"}, "image", "image/png", png)
	_, hasDeadline := req.Context().Deadline()
	require.False(t, hasDeadline)

	w := runCreatePost(h, req, u.ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, storage.ctx)
	deadline, ok := storage.ctx.Deadline()
	require.True(t, ok)
	assert.Greater(t, time.Until(deadline), 59*time.Minute)
}
