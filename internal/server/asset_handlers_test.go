package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedhub/internal/config"
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memAssetRepo is an in-memory AssetRepository for upload/serve tests.
type memAssetRepo struct {
	byRef  map[string]*models.Asset
	nextID uint
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{byRef: make(map[string]*models.Asset), nextID: 1}
}

func (r *memAssetRepo) Create(_ context.Context, asset *models.Asset) error {
	asset.ID = r.nextID
	r.nextID++
	r.byRef[asset.Ref] = asset
	return nil
}

func (r *memAssetRepo) GetByRef(_ context.Context, ref string) (*models.Asset, error) {
	if a, ok := r.byRef[ref]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAssetRepo) ExistsByRef(_ context.Context, ref string) (bool, error) {
	_, ok := r.byRef[ref]
	return ok, nil
}

func (r *memAssetRepo) DeleteByRef(_ context.Context, ref string) error {
	if _, ok := r.byRef[ref]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.byRef, ref)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// #nosec G115: modulo 255 is safe for uint8
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 64, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func multipartImage(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newAssetTestServer(t *testing.T) *Server {
	t.Helper()
	s := newTestServer(new(MockPostRepository), new(MockUserRepository), &stubAssetStore{exists: true})
	s.assetService = service.NewAssetService(newMemAssetRepo(), &config.Config{
		AssetDir:         t.TempDir(),
		AssetMaxUploadMB: 1,
	})
	return s
}

func TestUploadAsset(t *testing.T) {
	s := newAssetTestServer(t)
	app := authedApp(s)
	app.Post("/assets", s.UploadAsset)

	t.Run("success", func(t *testing.T) {
		body, contentType := multipartImage(t, "image", "photo.png", pngBytes(t, 320, 240))
		req := httptest.NewRequest(http.MethodPost, "/assets", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var uploaded AssetUploadResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
		assert.Len(t, uploaded.Ref, 64)
		assert.Equal(t, 320, uploaded.Width)
		assert.Equal(t, "image/png", uploaded.MimeType)
		assert.Equal(t, "/api/assets/"+uploaded.Ref, uploaded.URL)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/assets", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("not an image", func(t *testing.T) {
		body, contentType := multipartImage(t, "image", "notes.txt", []byte("plain text"))
		req := httptest.NewRequest(http.MethodPost, "/assets", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServeAsset(t *testing.T) {
	s := newAssetTestServer(t)
	app := authedApp(s)
	app.Post("/assets", s.UploadAsset)
	app.Get("/assets/:ref", s.ServeAsset)

	body, contentType := multipartImage(t, "image", "photo.png", pngBytes(t, 64, 64))
	req := httptest.NewRequest(http.MethodPost, "/assets", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploaded AssetUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))

	t.Run("master", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assets/"+uploaded.Ref, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})

	t.Run("thumbnail", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assets/"+uploaded.Ref+"?size=thumb", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	})

	t.Run("unknown ref", func(t *testing.T) {
		ghost := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assets/"+ghost, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed ref", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/assets/not-a-hash", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
