package services

import (
	"context"
	"sync"

	"translatorapp/internal/config"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"
)

// ModelLoader loads models on the inference server and hands out
// capabilities bound to them. Satisfied by MarianClient.
type ModelLoader interface {
	LoadModel(ctx context.Context, model string) error
	Capability(model string, kind serviceinterfaces.CapabilityKind) serviceinterfaces.TranslationCapability
}

// ModelCacheService loads each language pair's model at most once and caches
// the resulting capability for the lifetime of the process. A pair whose
// dedicated model fails to load is permanently served by the multilingual
// fallback model instead; the failure is logged, never surfaced to callers.
type ModelCacheService struct {
	cfg    *config.TranslationConfig
	loader ModelLoader
	logger *observability.Logger

	mu           sync.Mutex
	capabilities map[string]serviceinterfaces.TranslationCapability
	loadCounts   map[string]int
}

// NewModelCacheService creates a model cache backed by the given loader.
func NewModelCacheService(cfg *config.TranslationConfig, loader ModelLoader, logger *observability.Logger) *ModelCacheService {
	return &ModelCacheService{
		cfg:          cfg,
		loader:       loader,
		logger:       logger,
		capabilities: make(map[string]serviceinterfaces.TranslationCapability),
		loadCounts:   make(map[string]int),
	}
}

// Acquire returns the capability for a language pair, loading it on first
// use. Concurrent callers for the same pair serialize on the cache lock, so
// the load happens exactly once.
func (s *ModelCacheService) Acquire(ctx context.Context, pair models.LanguagePair) (capability serviceinterfaces.TranslationCapability, err error) {
	pair = pair.Normalized()

	ctx, span := observability.TraceModelCacheFunction(ctx, "acquire",
		observability.AttributeLanguagePair(pair.String()),
	)
	defer observability.FinishSpan(span, &err)

	if pair.IsIdentity() {
		return nil, contextutils.WrapError(contextutils.ErrUnsupportedLanguagePair,
			"identity pair requires no model: "+pair.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.capabilities[pair.String()]; ok {
		return cached, nil
	}

	capability, err = s.load(ctx, pair)
	if err != nil {
		return nil, err
	}
	s.capabilities[pair.String()] = capability
	return capability, nil
}

// load resolves the pair to a model and loads it, falling back to the
// multilingual model when the dedicated one fails.
func (s *ModelCacheService) load(ctx context.Context, pair models.LanguagePair) (serviceinterfaces.TranslationCapability, error) {
	s.loadCounts[pair.String()]++

	model, hasDedicated := s.cfg.LanguageModels[pair.Source]
	if hasDedicated {
		err := s.loader.LoadModel(ctx, model)
		if err == nil {
			s.logger.Info(ctx, "Loaded translation model", map[string]interface{}{
				"pair":  pair.String(),
				"model": model,
			})
			return s.loader.Capability(model, serviceinterfaces.CapabilityDirect), nil
		}
		s.logger.Warn(ctx, "Model load failed, using multilingual fallback", map[string]interface{}{
			"pair":  pair.String(),
			"model": model,
			"error": err.Error(),
		})
	} else {
		s.logger.Info(ctx, "No dedicated model for language, using multilingual fallback", map[string]interface{}{
			"pair": pair.String(),
		})
	}

	if err := s.loader.LoadModel(ctx, s.cfg.FallbackModel); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeModelLoadFailure,
			contextutils.SeverityError, "Translation model failed to load", pair.String(), err)
	}
	return s.loader.Capability(s.cfg.FallbackModel, serviceinterfaces.CapabilityFallback), nil
}

// LoadCount reports how many load attempts a pair has triggered. Used to
// verify the at-most-once loading behavior.
func (s *ModelCacheService) LoadCount(pair models.LanguagePair) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCounts[pair.Normalized().String()]
}
