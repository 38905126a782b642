package service

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/observability"
	"github.com/joeblew999/forest-map/internal/style"
)

// ErrNotOverlay is returned when features are requested for a base layer.
var ErrNotOverlay = eris.New("layer has no vector features")

// LayerStats summarises how a layer's features were classified.
type LayerStats struct {
	Features      int `json:"features" doc:"Number of features in the source"`
	Matched       int `json:"matched" doc:"Features whose attribute matched a table entry"`
	Defaulted     int `json:"defaulted" doc:"Features that fell back to the default color"`
	IndexFallback int `json:"indexFallback" doc:"Features whose HBR index came from the fallback attribute"`
	IndexMissing  int `json:"indexMissing" doc:"Features with no HBR index attribute at all"`
}

// StyledLayer is an overlay's feature collection with styles applied.
type StyledLayer struct {
	Layer    LayerConfig
	Features *geojson.FeatureCollection
	Stats    LayerStats
	LoadedAt time.Time
}

// FeatureService loads overlay sources and caches their styled features.
type FeatureService struct {
	layers  *LayerService
	sources *SourceService
	metrics *observability.Metrics
	logger  *zap.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	styled map[string]*StyledLayer
}

// NewFeatureService creates a feature service.
func NewFeatureService(layers *LayerService, sources *SourceService, metrics *observability.Metrics, logger *zap.Logger) *FeatureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeatureService{
		layers:  layers,
		sources: sources,
		metrics: metrics,
		logger:  logger,
		styled:  make(map[string]*StyledLayer),
	}
}

// Styled returns the styled features of overlay id, loading the source on
// first use. Concurrent first calls share one load.
func (s *FeatureService) Styled(ctx context.Context, id string) (*StyledLayer, error) {
	s.mu.RLock()
	cached, ok := s.styled[id]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		return s.load(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*StyledLayer), nil
}

// Reload drops the cached features of id and loads them again.
func (s *FeatureService) Reload(ctx context.Context, id string) (*StyledLayer, error) {
	s.mu.Lock()
	delete(s.styled, id)
	s.mu.Unlock()
	return s.Styled(ctx, id)
}

// Preload loads every overlay concurrently. It returns the first error but
// keeps the layers that did load.
func (s *FeatureService) Preload(ctx context.Context) error {
	var g errgroup.Group
	for _, l := range s.layers.Overlays() {
		g.Go(func() error {
			_, err := s.Styled(ctx, l.ID)
			return err
		})
	}
	return g.Wait()
}

func (s *FeatureService) load(ctx context.Context, id string) (*StyledLayer, error) {
	layer, ok := s.layers.Get(id)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownLayer, "layer %q", id)
	}
	resolver := layer.Resolver()
	if !layer.IsOverlay() || resolver == nil {
		return nil, eris.Wrapf(ErrNotOverlay, "layer %q", id)
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "load cancelled")
	}

	fc, err := s.sources.Load(layer.Source)
	if err != nil {
		s.countLoad(id, "error")
		return nil, eris.Wrapf(err, "load layer %q", id)
	}
	s.countLoad(id, "success")

	sl := &StyledLayer{
		Layer:    layer,
		Features: style.Apply(fc, resolver),
		Stats:    s.classifyStats(layer, fc),
		LoadedAt: time.Now(),
	}

	s.logger.Info("overlay loaded",
		zap.String("layer", id),
		zap.String("source", layer.Source),
		zap.Int("features", sl.Stats.Features),
		zap.Int("defaulted", sl.Stats.Defaulted),
	)
	if sl.Stats.IndexFallback > 0 {
		s.logger.Warn("HBR index read from fallback attribute",
			zap.String("layer", id),
			zap.String("attribute", classify.IndexFallbackAttr),
			zap.Int("features", sl.Stats.IndexFallback),
		)
	}

	s.mu.Lock()
	s.styled[id] = sl
	s.mu.Unlock()
	return sl, nil
}

func (s *FeatureService) classifyStats(layer LayerConfig, fc *geojson.FeatureCollection) LayerStats {
	stats := LayerStats{Features: len(fc.Features)}
	for _, f := range fc.Features {
		var matched bool
		switch layer.Classifier {
		case ClassifySpecies:
			matched = classify.SpeciesColorOf(f.Properties) != classify.DefaultSpeciesColor
		case ClassifyIndex:
			_, src := classify.IndexOf(f.Properties)
			switch src {
			case classify.IndexFromFallback:
				stats.IndexFallback++
				s.logger.Debug("HBR index fallback attribute used", zap.Any("feature", f.ID))
			case classify.IndexMissing:
				stats.IndexMissing++
			}
			if s.metrics != nil {
				s.metrics.IndexSource.WithLabelValues(layer.ID, string(src)).Inc()
			}
			matched = classify.IndexColorOf(f.Properties) != classify.DefaultIndexColor
		}

		outcome := "default"
		if matched {
			stats.Matched++
			outcome = "matched"
		} else {
			stats.Defaulted++
		}
		if s.metrics != nil {
			s.metrics.FeaturesStyled.WithLabelValues(layer.ID, outcome).Inc()
		}
	}
	return stats
}

func (s *FeatureService) countLoad(id, outcome string) {
	if s.metrics != nil {
		s.metrics.SourceLoads.WithLabelValues(id, outcome).Inc()
	}
}
