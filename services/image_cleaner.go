package services

import (
	"context"
	"sync"
	"time"

	"places-api/logger"
	"places-api/metrics"
)

// BlobStore stores uploaded images.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ImageCleaner deletes images in the background. Callers never wait for
// the result; failures are logged and counted.
type ImageCleaner struct {
	blobs   BlobStore
	log     *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewImageCleaner(blobs BlobStore, log *logger.Logger) *ImageCleaner {
	return &ImageCleaner{
		blobs:   blobs,
		log:     log.With("service", "ImageCleaner"),
		timeout: 30 * time.Second,
	}
}

// Discard schedules deletion of ref. The deletion outlives ctx's
// cancellation but keeps its values.
func (c *ImageCleaner) Discard(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		err := c.blobs.Delete(ctx, ref)
		metrics.RecordImageCleanup(err)
		if err != nil {
			c.log.Warn("Failed to delete image", "image", ref, "error", err)
			return
		}
		c.log.Info("Image deleted", "image", ref)
	}()
}

// Wait blocks until every scheduled deletion has finished.
func (c *ImageCleaner) Wait() {
	c.wg.Wait()
}
