// Package di provides the dependency injection container for managing
// service lifecycle and dependencies.
package di

import (
	"context"
	"os"

	"translatorapp/internal/config"
	"translatorapp/internal/document"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	"translatorapp/internal/services"
	contextutils "translatorapp/internal/utils"
)

// ServiceContainer wires the translation services together and owns their
// lifecycle.
type ServiceContainer struct {
	cfg    *config.Config
	logger *observability.Logger

	marianClient    *services.MarianClient
	modelCache      *services.ModelCacheService
	translator      *services.ChunkedTranslatorService
	detector        serviceinterfaces.LanguageDetector
	documentService *services.DocumentService
	sessionService  *services.SessionService
	cleanupService  *services.CleanupService

	cancelBackground context.CancelFunc
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{cfg: cfg, logger: logger}
}

// Initialize sets up all services and their dependencies.
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	for _, dir := range []string{sc.cfg.Storage.UploadDir, sc.cfg.Storage.ArtifactDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return contextutils.WrapErrorf(err, "failed to create storage directory %s", dir)
		}
	}

	sc.marianClient = services.NewMarianClient(&sc.cfg.Translation, sc.logger)
	sc.modelCache = services.NewModelCacheService(&sc.cfg.Translation, sc.marianClient, sc.logger)

	translator, err := services.NewChunkedTranslatorService(sc.modelCache, sc.logger)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize translator")
	}
	sc.translator = translator

	sc.detector = services.NewLanguageDetector(&sc.cfg.Detection, sc.logger)

	reader := document.NewReader(sc.logger)
	writer := document.NewWriter(sc.cfg.Storage.ArtifactDir, sc.logger)
	sc.documentService = services.NewDocumentService(sc.cfg, reader, writer, sc.detector, sc.translator, sc.logger)

	sc.sessionService = services.NewSessionService(&sc.cfg.Session, sc.detector, sc.translator,
		sc.cfg.Translation.TargetLanguage, sc.logger)
	sc.cleanupService = services.NewCleanupService(&sc.cfg.Storage, sc.logger)

	sc.logger.Info(ctx, "Service container initialized", map[string]interface{}{
		"languages":          sc.cfg.SupportedLanguages(),
		"detection_provider": sc.cfg.Detection.Provider,
	})
	return nil
}

// StartBackground launches the cleanup and session sweep loops. They run
// until Shutdown is called.
func (sc *ServiceContainer) StartBackground(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	sc.cancelBackground = cancel

	go sc.cleanupService.Start(bgCtx)
	go sc.sessionService.StartSweeper(bgCtx)
}

// Shutdown stops background loops and flushes the logger.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.cancelBackground != nil {
		sc.cancelBackground()
	}
	sc.logger.Info(ctx, "Service container shut down", nil)
	return sc.logger.Sync()
}

// GetConfig returns the application config.
func (sc *ServiceContainer) GetConfig() *config.Config { return sc.cfg }

// GetLogger returns the application logger.
func (sc *ServiceContainer) GetLogger() *observability.Logger { return sc.logger }

// GetModelCache returns the model cache service.
func (sc *ServiceContainer) GetModelCache() *services.ModelCacheService { return sc.modelCache }

// GetDetector returns the language detector.
func (sc *ServiceContainer) GetDetector() serviceinterfaces.LanguageDetector { return sc.detector }

// GetDocumentService returns the document pipeline orchestrator.
func (sc *ServiceContainer) GetDocumentService() *services.DocumentService {
	return sc.documentService
}

// GetSessionService returns the live session manager.
func (sc *ServiceContainer) GetSessionService() *services.SessionService { return sc.sessionService }

// GetCleanupService returns the artifact retention sweeper.
func (sc *ServiceContainer) GetCleanupService() *services.CleanupService { return sc.cleanupService }
