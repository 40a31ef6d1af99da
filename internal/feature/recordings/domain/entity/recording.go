// Package entity defines the domain entities for the recordings feature.
package entity

import (
	"io"
	"time"

	tagentity "voces_backend/internal/feature/tags/domain/entity"
)

// Recording はオブジェクトストレージに置かれた音声ファイルのカタログ情報です。
// Metadata は任意のJSONオブジェクトです。
type Recording struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"not null"`
	Description *string
	FileURL     string          `gorm:"not null"`
	FileKey     string          `gorm:"not null"`
	Metadata    map[string]any  `gorm:"type:jsonb;serializer:json"`
	Tags        []tagentity.Tag `gorm:"many2many:recording_tags;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Upload はアップロードされたファイルです。
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
