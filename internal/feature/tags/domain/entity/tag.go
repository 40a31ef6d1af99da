// Package entity defines the domain entities for the tags feature.
package entity

import "time"

// Tag は録音に付与するラベルです。名前は一意です。
type Tag struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"uniqueIndex;size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
