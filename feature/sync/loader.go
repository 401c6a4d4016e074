package sync

import (
	"field-ops/feature/sync/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	db      *gorm.DB
}

// NewFeature creates the sync feature backed by the given database.
func NewFeature(db *gorm.DB, logger *zap.Logger) *Feature {
	var svc *Service
	if db != nil {
		svc = NewService(store.New(db), store.NewAuditLog(db), logger)
	}
	f := &Feature{service: svc, db: db}
	if svc != nil {
		f.handler = NewHandler(svc)
	}
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled reports whether the feature can run; it requires a database.
func (f *Feature) IsEnabled() bool {
	return f.db != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
