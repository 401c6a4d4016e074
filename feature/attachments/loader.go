package attachments

import (
	"context"
	"time"

	"field-ops/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	client  storage.Client
}

// NewFeature creates the attachments feature backed by the given storage
// client.
func NewFeature(client storage.Client, bucket string, logger *zap.Logger) *Feature {
	f := &Feature{client: client}
	if client != nil {
		f.service = NewService(client, bucket, logger)
		f.handler = NewHandler(f.service)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "attachments"
}

// IsEnabled reports whether the feature can run; it requires object storage.
func (f *Feature) IsEnabled() bool {
	return f.client != nil
}

// Load ensures the bucket exists and registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := f.service.EnsureBucket(ctx); err != nil {
		return err
	}
	f.handler.RegisterRoutes(app)
	return nil
}
