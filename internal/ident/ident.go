// Package ident generates prefixed entity IDs such as "asset-1a2b3c4d".
package ident

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns prefix-xxxxxxxx using the first 8 hex chars of a random UUID.
func New(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Unique generates an ID for model and retries once on collision.
func Unique(db *gorm.DB, model interface{}, prefix string) (string, error) {
	for range 2 {
		id := New(prefix)
		var count int64
		if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("ident: check %s ID uniqueness: %w", prefix, err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("ident: failed to generate unique %s ID after retries", prefix)
}
