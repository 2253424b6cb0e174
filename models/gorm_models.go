// models/gorm_models.go
package models

import (
	"time"
)

// BlobRecord 持久化数据块，一个键对应一个完整的bundle
type BlobRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;not null"`
	Data      []byte `gorm:"type:bytea;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BlobRecord) TableName() string {
	return "scorekeeper_blobs"
}
