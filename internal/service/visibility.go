package service

import (
	"maps"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/forest-map/internal/observability"
)

// ErrUnknownLayer is returned when toggling a layer that does not exist.
var ErrUnknownLayer = eris.New("unknown layer")

// VisibilityState maps layer ID to visibility.
type VisibilityState map[string]bool

// VisibilityController owns the visibility flags of the map layers.
//
// Base layers form an exclusive choice: checking one hides the others and
// unchecking is ignored, so exactly one base map is always shown. Overlays
// are independent switches.
type VisibilityController struct {
	mu      sync.RWMutex
	kinds   map[string]LayerKind
	base    string
	overlay map[string]bool

	bus     *EventBus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewVisibilityController seeds state from each layer's DefaultVisible. The
// first default-visible base layer (or the first base layer) becomes the
// selected base.
func NewVisibilityController(layers []LayerConfig, bus *EventBus, metrics *observability.Metrics, logger *zap.Logger) *VisibilityController {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &VisibilityController{
		kinds:   make(map[string]LayerKind, len(layers)),
		overlay: make(map[string]bool),
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
	firstBase := ""
	for _, l := range layers {
		c.kinds[l.ID] = l.Kind
		switch l.Kind {
		case KindBase:
			if firstBase == "" {
				firstBase = l.ID
			}
			if l.DefaultVisible && c.base == "" {
				c.base = l.ID
			}
		case KindOverlay:
			c.overlay[l.ID] = l.DefaultVisible
		}
	}
	if c.base == "" {
		c.base = firstBase
	}
	return c
}

// State returns a snapshot of every layer's visibility.
func (c *VisibilityController) State() VisibilityState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *VisibilityController) snapshot() VisibilityState {
	state := make(VisibilityState, len(c.kinds))
	for id, kind := range c.kinds {
		if kind == KindBase {
			state[id] = id == c.base
		}
	}
	maps.Copy(state, c.overlay)
	return state
}

// Toggle applies a checkbox change for layer id and returns the new state.
// Repeating the same toggle is a no-op and publishes nothing.
func (c *VisibilityController) Toggle(id string, checked bool) (VisibilityState, error) {
	c.mu.Lock()
	kind, ok := c.kinds[id]
	if !ok {
		c.mu.Unlock()
		return nil, eris.Wrapf(ErrUnknownLayer, "layer %q", id)
	}

	changed := false
	switch kind {
	case KindBase:
		if checked && c.base != id {
			c.base = id
			changed = true
		}
	case KindOverlay:
		if c.overlay[id] != checked {
			c.overlay[id] = checked
			changed = true
		}
	}
	state := c.snapshot()
	c.mu.Unlock()

	if !changed {
		return state, nil
	}

	c.logger.Debug("layer visibility changed",
		zap.String("layer", id),
		zap.Bool("checked", checked),
	)
	if c.metrics != nil {
		c.metrics.VisibilityToggles.WithLabelValues(id, strconv.FormatBool(checked)).Inc()
	}
	if c.bus != nil {
		c.bus.Publish(Event{Resource: "visibility", Action: "toggled", ID: id, State: state})
	}
	return state, nil
}
