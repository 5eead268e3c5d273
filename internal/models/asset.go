package models

import "time"

// Asset is a stored binary (currently always an image) addressed by an
// opaque content-derived reference. Path and ThumbPath are relative to the
// configured asset directory.
type Asset struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Ref              string    `gorm:"uniqueIndex;not null" json:"ref"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `gorm:"not null" json:"mime_type"`
	SizeBytes        int64     `gorm:"not null" json:"size_bytes"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Path             string    `gorm:"not null" json:"-"`
	ThumbPath        string    `json:"-"`
	UploadedAt       time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
