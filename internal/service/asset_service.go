package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"feedhub/internal/config"
	"feedhub/internal/models"
	"feedhub/internal/observability"
	"feedhub/internal/repository"
	"feedhub/internal/validation"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAssetDir         = "/tmp/feedhub/assets"
	DefaultAssetMaxUploadMB = 8
	ThumbMaxSize            = 256
	WebPQuality             = 70
)

type UploadAssetInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// AssetService stores uploaded images on disk and their metadata in the
// database, addressed by a content-derived reference.
type AssetService struct {
	repo           repository.AssetRepository
	assetDir       string
	maxUploadBytes int64
}

func NewAssetService(repo repository.AssetRepository, cfg *config.Config) *AssetService {
	assetDir := DefaultAssetDir
	maxUploadMB := int64(DefaultAssetMaxUploadMB)

	if cfg != nil {
		if cfg.AssetDir != "" {
			assetDir = cfg.AssetDir
		}
		if cfg.AssetMaxUploadMB > 0 {
			maxUploadMB = cfg.AssetMaxUploadMB
		}
	}

	return &AssetService{
		repo:           repo,
		assetDir:       assetDir,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// Upload validates, stores and records an image. Uploading the same bytes
// twice returns the already stored record.
func (s *AssetService) Upload(ctx context.Context, in UploadAssetInput) (*models.Asset, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	mimeType := decodedFormatToMime(format)
	if mimeType == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, mimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	ref := buildAssetRef(in.Content)

	existing, getErr := s.repo.GetByRef(ctx, ref)
	if getErr == nil {
		return existing, nil
	}
	if !repository.IsNotFound(getErr) {
		return nil, models.NewInternalError(getErr)
	}

	masterRel := filepath.ToSlash(filepath.Join(ref[:2], ref+extensionFor(format)))
	thumbRel := filepath.ToSlash(filepath.Join(ref[:2], ref+"_thumb.webp"))
	masterAbs := filepath.Join(s.assetDir, masterRel)
	thumbAbs := filepath.Join(s.assetDir, thumbRel)

	thumbBytes, err := encodeWebP(resizeToFit(decoded, ThumbMaxSize, ThumbMaxSize), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := writeBytesToFile(masterAbs, in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(thumbAbs, thumbBytes); err != nil {
		cleanupAssetFiles(masterAbs)
		return nil, models.NewInternalError(err)
	}

	b := decoded.Bounds()
	record := &models.Asset{
		Ref:              ref,
		UserID:           in.UserID,
		OriginalFilename: in.Filename,
		MimeType:         mimeType,
		SizeBytes:        int64(len(in.Content)),
		Width:            b.Dx(),
		Height:           b.Dy(),
		Path:             masterRel,
		ThumbPath:        thumbRel,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		cleanupAssetFiles(masterAbs, thumbAbs)
		return nil, models.NewInternalError(err)
	}

	observability.AssetUploads.WithLabelValues(mimeType).Inc()
	return record, nil
}

// Exists reports whether a reference resolves to a stored asset.
// Malformed references resolve to nothing rather than erroring.
func (s *AssetService) Exists(ctx context.Context, ref string) (bool, error) {
	if validation.ValidateAssetRef(ref) != nil {
		return false, nil
	}
	return s.repo.ExistsByRef(ctx, ref)
}

// Get returns the stored metadata for a reference.
func (s *AssetService) Get(ctx context.Context, ref string) (*models.Asset, error) {
	if err := validation.ValidateAssetRef(ref); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	asset, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Asset", ref)
		}
		return nil, models.NewInternalError(err)
	}
	return asset, nil
}

// ResolveForServing returns the asset record and the absolute file path of
// the master image, verifying the file is still on disk.
func (s *AssetService) ResolveForServing(ctx context.Context, ref string) (*models.Asset, string, error) {
	asset, err := s.Get(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	fullPath := filepath.Join(s.assetDir, filepath.FromSlash(asset.Path))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, "", models.NewNotFoundError("Asset", ref)
		}
		return nil, "", models.NewInternalError(err)
	}
	return asset, fullPath, nil
}

// ThumbPathFor returns the absolute file path of the thumbnail.
func (s *AssetService) ThumbPathFor(asset *models.Asset) string {
	return filepath.Join(s.assetDir, filepath.FromSlash(asset.ThumbPath))
}

// Remove deletes the asset row and its files. An unknown reference is an
// error so callers can tell cleanup apart from a no-op; feed-path callers
// treat it as advisory.
func (s *AssetService) Remove(ctx context.Context, ref string) error {
	asset, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByRef(ctx, ref); err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundError("Asset", ref)
		}
		return models.NewInternalError(err)
	}

	// Row is gone; file removal failures leave orphans, not dangling refs.
	cleanupAssetFiles(
		filepath.Join(s.assetDir, filepath.FromSlash(asset.Path)),
		filepath.Join(s.assetDir, filepath.FromSlash(asset.ThumbPath)),
	)
	return nil
}

func buildAssetRef(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func extensionFor(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return ".jpg"
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupAssetFiles(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
