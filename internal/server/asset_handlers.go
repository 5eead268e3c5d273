package server

import (
	"io"

	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AssetUploadResponse is the API response after uploading an image.
type AssetUploadResponse struct {
	ID        uint   `json:"id"`
	Ref       string `json:"ref"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
	URL       string `json:"url"`
}

// UploadAsset handles POST /api/assets
func (s *Server) UploadAsset(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.assetService.Upload(c.UserContext(), service.UploadAssetInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(AssetUploadResponse{
		ID:        uploaded.ID,
		Ref:       uploaded.Ref,
		Width:     uploaded.Width,
		Height:    uploaded.Height,
		SizeBytes: uploaded.SizeBytes,
		MimeType:  uploaded.MimeType,
		URL:       "/api/assets/" + uploaded.Ref,
	})
}

// ServeAsset handles GET /api/assets/:ref. The optional size=thumb query
// serves the webp thumbnail instead of the master image.
func (s *Server) ServeAsset(c *fiber.Ctx) error {
	ref := c.Params("ref")

	asset, fullPath, err := s.assetService.ResolveForServing(c.UserContext(), ref)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	mimeType := asset.MimeType
	if c.Query("size") == "thumb" {
		fullPath = s.assetService.ThumbPathFor(asset)
		mimeType = "image/webp"
	}

	c.Set(fiber.HeaderContentType, mimeType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendFile(fullPath)
}
