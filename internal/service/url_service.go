package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
	"shortlink/internal/shortcode"
	"shortlink/pkg/logger"

	"go.uber.org/zap"
)

// Outcome classifies a lookup. The zero value is OutcomeUnknown, which
// callers treat like absence.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeFound
	OutcomeAbsent
	OutcomeBackendError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeAbsent:
		return "absent"
	case OutcomeBackendError:
		return "error"
	default:
		return "unknown"
	}
}

// Lookup is the result of resolving a short code. Mapping is set only for
// OutcomeFound and Err only for OutcomeBackendError.
type Lookup struct {
	Outcome Outcome
	Mapping domain.URLMapping
	Err     error
}

// ShortenResult is returned by Shorten.
type ShortenResult struct {
	ShortCode string
	ShortURL  string
}

// Options tunes URLService. Zero values fall back to defaults.
type Options struct {
	// MaxAttempts bounds code generation when the store reports a conflict.
	// 1 disables retrying.
	MaxAttempts int

	// StoreTimeout bounds every store call. Store calls are detached from
	// the caller's cancellation so a client hanging up does not abort a write.
	StoreTimeout time.Duration

	// Generate produces candidate short codes. Defaults to shortcode.Generate.
	Generate func() string
}

// URLService creates and resolves short code mappings on top of a MappingStore.
type URLService struct {
	store        repository.MappingStore
	baseURL      string
	log          *logger.Logger
	maxAttempts  int
	storeTimeout time.Duration
	generate     func() string
}

// NewURLService creates a new URL service. baseURL is prefixed to every
// short code handed back by Shorten and must not end with "/".
func NewURLService(store repository.MappingStore, baseURL string, log *logger.Logger, opts Options) *URLService {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Generate == nil {
		opts.Generate = shortcode.Generate
	}
	return &URLService{
		store:        store,
		baseURL:      baseURL,
		log:          log,
		maxAttempts:  opts.MaxAttempts,
		storeTimeout: opts.StoreTimeout,
		generate:     opts.Generate,
	}
}

// Shorten stores originalURL under a freshly generated code and returns the
// code and the full short URL. When the generated code is already taken a new
// one is generated, up to MaxAttempts times. Backend failures are not retried.
func (s *URLService) Shorten(ctx context.Context, originalURL string) (*ShortenResult, error) {
	log := s.log.WithContext(ctx)

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		mapping := domain.NewURLMapping(s.generate(), originalURL)
		if err := mapping.Validate(); err != nil {
			return nil, err
		}

		err = s.save(ctx, mapping)
		if err == nil {
			metrics.RecordMappingCreated()
			log.Debug("mapping created", zap.String("short_code", mapping.ShortCode))
			return &ShortenResult{
				ShortCode: mapping.ShortCode,
				ShortURL:  s.ShortURL(mapping.ShortCode),
			}, nil
		}

		if !errors.Is(err, repository.ErrConflict) {
			log.Error("failed to save mapping", zap.String("short_code", mapping.ShortCode), zap.Error(err))
			return nil, fmt.Errorf("failed to save mapping: %w", err)
		}

		metrics.RecordShortenConflict()
		log.Warn("generated short code already exists",
			zap.String("short_code", mapping.ShortCode),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts),
		)
	}

	log.Error("no free short code left after retries", zap.Int("max_attempts", s.maxAttempts), zap.Error(err))
	return nil, fmt.Errorf("no free short code after %d attempts: %w", s.maxAttempts, err)
}

// Resolve looks up a short code and classifies the result. Absence is not an
// error; backend failures are logged here so callers can map both to the same
// response without losing the distinction.
func (s *URLService) Resolve(ctx context.Context, shortCode string) Lookup {
	log := s.log.WithContext(ctx).With(zap.String("short_code", shortCode))

	if !shortcode.Valid(shortCode) {
		log.Debug("short code has an impossible shape, skipping store")
		return Lookup{Outcome: OutcomeAbsent}
	}

	mapping, found, err := s.find(ctx, shortCode)
	switch {
	case err != nil:
		log.Error("failed to look up short code", zap.Error(err))
		return Lookup{Outcome: OutcomeBackendError, Err: err}
	case !found:
		log.Debug("short code not found")
		return Lookup{Outcome: OutcomeAbsent}
	default:
		return Lookup{Outcome: OutcomeFound, Mapping: mapping}
	}
}

// ShortURL composes the public URL for a code.
func (s *URLService) ShortURL(shortCode string) string {
	return s.baseURL + "/" + shortCode
}

// Ping reports whether the store is reachable.
func (s *URLService) Ping(ctx context.Context) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *URLService) save(ctx context.Context, mapping domain.URLMapping) error {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	start := time.Now()
	defer metrics.ObserveStoreOperation("save", start)

	err := s.store.Save(ctx, mapping)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrConflict):
		metrics.RecordStoreError("save", "conflict")
	default:
		metrics.RecordStoreError("save", "backend")
	}
	return err
}

func (s *URLService) find(ctx context.Context, shortCode string) (domain.URLMapping, bool, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()

	start := time.Now()
	defer metrics.ObserveStoreOperation("find", start)

	mapping, found, err := s.store.Find(ctx, shortCode)
	if err != nil {
		metrics.RecordStoreError("find", "backend")
	}
	return mapping, found, err
}

// storeContext keeps request values (request id) but drops the request's
// cancellation, then applies the store timeout.
func (s *URLService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.storeTimeout > 0 {
		return context.WithTimeout(ctx, s.storeTimeout)
	}
	return ctx, func() {}
}
