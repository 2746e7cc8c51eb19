package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gemerp/backend/internal/application/upload"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func (s *testServer) upload(t *testing.T, path, field string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "stone.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestUploadHandler_ItemPhoto(t *testing.T) {
	s := newTestServer(t)
	item := s.createItem(t, "Mix")

	w := s.upload(t, fmt.Sprintf("/api/v1/uploads/item/%d", item.ID), "file", pngHeader)
	testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	photo := testutil.DecodeResult[upload.PhotoResponse](t, w)
	assert.True(t, strings.HasPrefix(photo.Key, fmt.Sprintf("photos/item/%d/", item.ID)))
	assert.True(t, strings.HasSuffix(photo.Key, ".png"))
	assert.NotEmpty(t, photo.URL)
	assert.Equal(t, 1, s.storage.Len())

	assert.Equal(t, photo.Key, s.itemByID(t, item.ID).PhotoLink)

	w = s.do(t, http.MethodGet, "/api/v1/uploads/url?key="+photo.Key, nil)
	testutil.AssertSuccessResponse(t, w, http.StatusOK)
	assert.Equal(t, photo.Key, testutil.DecodeResult[upload.PhotoResponse](t, w).Key)

	w = s.do(t, http.MethodGet, "/api/v1/uploads/url?key=../etc/passwd", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestUploadHandler_Rejections(t *testing.T) {
	s := newTestServer(t)
	item := s.createItem(t, "Mix")
	path := fmt.Sprintf("/api/v1/uploads/item/%d", item.ID)

	t.Run("oversize", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), make([]byte, 2<<10)...)
		w := s.upload(t, path, "file", big)
		testutil.AssertErrorResponse(t, w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE")
	})

	t.Run("unknown target", func(t *testing.T) {
		w := s.upload(t, fmt.Sprintf("/api/v1/uploads/customer/%d", item.ID), "file", pngHeader)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("missing file", func(t *testing.T) {
		w := s.upload(t, path, "", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("not an image", func(t *testing.T) {
		w := s.upload(t, path, "file", []byte("plain text notes"))
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "VALIDATION_FAILED")
	})

	t.Run("unknown owner", func(t *testing.T) {
		w := s.upload(t, "/api/v1/uploads/item/999", "file", pngHeader)
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, "NOT_FOUND")
	})

	assert.Equal(t, 0, s.storage.Len(), "rejected uploads leave nothing behind")
}
