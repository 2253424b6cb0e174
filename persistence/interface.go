// persistence/interface.go
package persistence

import (
	"errors"
)

// BlobStore 持久化接口，按键读写完整的数据块
type BlobStore interface {
	// Read returns ErrRecordNotFound when nothing was stored under key.
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown storage driver")
)
