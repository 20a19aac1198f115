// Package service runs iOS and Android size evaluations and keeps their
// results for later lookup.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/appsize/internal/bundletool"
	"github.com/JonMunkholm/appsize/internal/config"
	"github.com/JonMunkholm/appsize/internal/logging"
	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/review"
	"github.com/JonMunkholm/appsize/internal/store"
)

// MaxRuns is how many runs are kept in memory before the oldest is dropped.
var MaxRuns = 256

// ErrRunNotFound is returned by Get for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// History persists runs beyond the process lifetime.
type History interface {
	SaveRun(ctx context.Context, run store.Run, entries []store.Entry) error
	GetRun(ctx context.Context, id string) (store.Run, error)
}

// Service evaluates reports against the configured policy.
type Service struct {
	cfg        *config.Config
	renderer   *review.Renderer
	history    History
	runner     bundletool.Runner
	downloader *bundletool.Downloader

	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

// Option configures a Service.
type Option func(*Service)

// WithHistory stores every run in h.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// WithRunner replaces the process runner used for bundletool.
func WithRunner(r bundletool.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithDownloader replaces the bundletool downloader.
func WithDownloader(d *bundletool.Downloader) Option {
	return func(s *Service) { s.downloader = d }
}

// New creates a Service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	d := bundletool.NewDownloader()
	d.BaseURL = cfg.Android.BundletoolURL

	s := &Service{
		cfg: cfg,
		renderer: review.NewRenderer(
			review.WithVariantsLimit(cfg.Android.VariantsLimit),
			review.WithLocale(cfg.Report.Locale),
		),
		runner:     bundletool.ExecRunner{},
		downloader: d,
		runs:       make(map[string]*Run),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HistoryEnabled reports whether runs are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// IOSOptions returns the configured iOS evaluation defaults.
func (s *Service) IOSOptions() policy.Options {
	c := s.cfg.IOS
	return policy.Options{
		BuildType:     c.BuildType,
		LimitSize:     c.LimitSize,
		LimitUnit:     c.LimitUnit,
		FailOnWarning: c.FailOnWarning,
	}
}

// AndroidOptions returns the configured Android evaluation defaults.
func (s *Service) AndroidOptions() policy.Options {
	c := s.cfg.Android
	return policy.Options{
		BuildType:     c.BuildType,
		LimitSize:     c.LimitSize,
		LimitUnit:     c.LimitUnit,
		FailOnWarning: c.FailOnWarning,
	}
}

// AndroidFilter returns the configured density and language filter.
func (s *Service) AndroidFilter() Filter {
	return Filter{
		Densities: s.cfg.Android.ScreenDensities,
		Languages: s.cfg.Android.Languages,
	}
}

// Get returns a run from memory or, failing that, from history.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	run, ok := s.runs[id]
	s.mu.RUnlock()
	if ok {
		return run, nil
	}

	if s.history == nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	rec, err := s.history.GetRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	run = &Run{}
	if err := json.Unmarshal(rec.Result, run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

// record assigns an ID, keeps the run in memory and persists it when
// history is enabled. A history failure is logged, not returned.
func (s *Service) record(ctx context.Context, run *Run) {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for len(s.order) > MaxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	s.mu.Unlock()

	log := logging.WithFields(ctx,
		"run_id", run.ID,
		"platform", run.Platform,
		"violations", run.Violations,
		"failed", run.Failed,
	)
	log.Info("evaluation complete")

	if s.history == nil {
		return
	}
	rec, entries, err := run.record()
	if err != nil {
		log.Error("encode run failed", "error", err)
		return
	}
	if err := s.history.SaveRun(ctx, rec, entries); err != nil {
		log.Error("save run failed", "error", err)
	}
}
