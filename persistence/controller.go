// persistence/controller.go
package persistence

import (
	"errors"
	"time"

	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/models"
)

// DefaultKey is the blob key the bundle is stored under.
const DefaultKey = "appstate.json"

// SaveObserver is told how long each save took and whether it failed.
type SaveObserver func(elapsed time.Duration, err error)

// Controller applies the storage policy on top of a BlobStore: loading never
// fails (a missing or unreadable bundle is reported as absent) and saving is
// best effort (failures are logged and dropped).
type Controller struct {
	store    BlobStore
	key      string
	observer SaveObserver
}

func NewController(store BlobStore, key string) *Controller {
	if key == "" {
		key = DefaultKey
	}
	return &Controller{store: store, key: key}
}

// SetObserver installs a save observer. Not safe to call concurrently with Save.
func (c *Controller) SetObserver(o SaveObserver) {
	c.observer = o
}

// Load returns the stored bundle, or false when there is none or it cannot
// be decoded.
func (c *Controller) Load() (models.Bundle, bool) {
	data, err := c.store.Read(c.key)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			logger.Log.Warnw("failed to read bundle", "key", c.key, "error", err)
		}
		return models.Bundle{}, false
	}
	b, err := Decode(data)
	if err != nil {
		logger.Log.Warnw("discarding unreadable bundle", "key", c.key, "error", err)
		return models.Bundle{}, false
	}
	return b, true
}

// Save writes the bundle. Errors never reach the caller.
func (c *Controller) Save(b models.Bundle) {
	start := time.Now()
	err := c.save(b)
	if err != nil {
		logger.Log.Warnw("failed to save bundle", "key", c.key, "error", err)
	}
	if c.observer != nil {
		c.observer(time.Since(start), err)
	}
}

func (c *Controller) save(b models.Bundle) error {
	data, err := Encode(b)
	if err != nil {
		return err
	}
	return c.store.Write(c.key, data)
}

// Close releases the underlying store.
func (c *Controller) Close() error {
	return c.store.Close()
}
