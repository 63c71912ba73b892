package wp

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/probelabs/wpscope/internal/fetch"
	"github.com/probelabs/wpscope/internal/telemetry"
)

// Fetcher is the outbound HTTP capability the detectors need. Satisfied by
// *fetch.Client; tests substitute fakes.
type Fetcher interface {
	Get(ctx context.Context, url string) (fetch.Response, error)
	Head(ctx context.Context, url string) (fetch.Response, error)
}

// Config controls analyzer behavior.
type Config struct {
	// DeepScanConcurrency bounds the parallel per-plugin readme fetches so a
	// plugin-heavy page cannot fan out unbounded against the target.
	DeepScanConcurrency int
}

// Analyzer orchestrates one site analysis: fetch the homepage, decide
// WordPress presence, then run the independent detectors. It holds no
// per-request state and is safe for concurrent use.
type Analyzer struct {
	fetcher Fetcher
	clock   Clock
	cfg     Config
	logger  *zap.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(fetcher Fetcher, clock Clock, cfg Config, logger *zap.Logger) *Analyzer {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeepScanConcurrency <= 0 {
		cfg.DeepScanConcurrency = 5
	}
	return &Analyzer{
		fetcher: fetcher,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// Analyze runs the detection pipeline against one target.
//
// The homepage fetch is the hard dependency: a transport failure or
// non-success status there aborts the analysis. Every follow-up probe is
// soft; its failure only leaves the corresponding field empty.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	target, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}

	start := a.clock.Now()
	result := &AnalysisResult{
		URL:           target,
		Plugins:       []PluginInfo{},
		ScanTimestamp: start,
	}

	resp, err := a.fetcher.Get(ctx, target)
	if err != nil {
		telemetry.ObserveAnalysis("fetch_failed", false, a.clock.Now().Sub(start))
		return nil, fmt.Errorf("fetch homepage: %w", err)
	}
	if !resp.Success() {
		telemetry.ObserveAnalysis("fetch_failed", false, a.clock.Now().Sub(start))
		return nil, &fetch.StatusError{URL: resp.URL, StatusCode: resp.StatusCode}
	}

	p, err := newPage(resp.URL, resp.Body, resp.Headers)
	if err != nil {
		telemetry.ObserveAnalysis("parse_failed", false, a.clock.Now().Sub(start))
		return nil, err
	}
	result.FinalURL = resp.URL

	result.IsWordPress = a.detectPresence(ctx, p)
	if result.IsWordPress {
		// Header and <head> extractions are local; only the remaining
		// detectors issue probes and they share no state, so they run
		// concurrently purely to cut wall-clock latency.
		result.Server = extractServerInfo(p.headers)
		result.Metadata = extractMetadata(p)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			result.Version = a.detectVersion(gctx, p)
			return nil
		})
		g.Go(func() error {
			result.Theme = a.detectTheme(gctx, p)
			return nil
		})
		g.Go(func() error {
			result.Plugins = a.detectPlugins(gctx, p, req.DeepScan)
			return nil
		})
		g.Go(func() error {
			result.Security = a.detectSecurity(gctx, p)
			return nil
		})
		// Detectors degrade to nil fields instead of failing.
		_ = g.Wait()
	}

	elapsed := a.clock.Now().Sub(start)
	result.ScanDurationMS = elapsed.Milliseconds()
	telemetry.ObserveAnalysis("completed", result.IsWordPress, elapsed)
	a.logger.Info("analysis completed",
		zap.String("url", target),
		zap.Bool("is_wordpress", result.IsWordPress),
		zap.Bool("deep_scan", req.DeepScan),
		zap.Int("plugins", len(result.Plugins)),
		zap.Int64("duration_ms", result.ScanDurationMS),
	)
	return result, nil
}
