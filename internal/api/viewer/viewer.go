// Package viewer contains the Datastar SSE handlers behind the map viewer:
// layer checkboxes, legend panels and the live visibility stream.
package viewer

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/forest-map/internal/humastar"
	"github.com/joeblew999/forest-map/internal/service"
	"github.com/joeblew999/forest-map/internal/templates"
)

// VisibilityEvent is the browser event the map script listens for.
const VisibilityEvent = "visibility-changed"

// Handler serves the viewer's SSE endpoints.
type Handler struct {
	humastar.Handler
	layers     *service.LayerService
	features   *service.FeatureService
	visibility *service.VisibilityController
	bus        *service.EventBus
}

// NewHandler creates a viewer handler.
func NewHandler(
	layers *service.LayerService,
	features *service.FeatureService,
	visibility *service.VisibilityController,
	bus *service.EventBus,
	renderer *templates.Renderer,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Handler:    humastar.Handler{Renderer: renderer, Logger: logger},
		layers:     layers,
		features:   features,
		visibility: visibility,
		bus:        bus,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/viewer/layers/{id}/toggle", h.Toggle, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/legend", h.Legend, huma.OperationTags("viewer"))
	huma.Get(api, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
}

type ToggleInput struct {
	ID      string `path:"id" doc:"Layer ID" example:"hbr"`
	RawBody []byte
}

// Toggle applies a checkbox change. The checkbox's signal carries the new
// state; without it the layer is flipped. Every layer's signal is patched
// back so an ignored base-layer uncheck snaps the checkbox back on.
func (h *Handler) Toggle(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	signals, err := humastar.MustParseSignals(input.RawBody)
	if err != nil {
		return nil, err
	}
	if _, ok := h.layers.Get(input.ID); !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("layer %q not found", input.ID))
	}

	checked := !h.visibility.State()[input.ID]
	if signals.Has(input.ID) {
		checked = signals.Bool(input.ID)
	}

	state, err := h.visibility.Toggle(input.ID, checked)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(stateSignals(state))
		sse.DispatchCustomEvent(VisibilityEvent, map[string]any{
			"layer": input.ID, "state": state,
		})
	}), nil
}

// Legend fills every overlay's legend panel and the per-layer statistics.
func (h *Handler) Legend(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	overlays := h.layers.Overlays()

	return h.Stream(func(sse humastar.SSE) {
		var stats []any
		for _, l := range overlays {
			items := make([]any, 0, len(l.Legend))
			for _, item := range l.Legend {
				items = append(items, item)
			}
			sse.Patch(h.RenderList("legend-item", items, "Нет легенды", l.Name), LegendSelector(l.ID))

			styled, err := h.features.Styled(ctx, l.ID)
			if err != nil {
				h.Logger.Warn("overlay unavailable for legend", zap.String("layer", l.ID), zap.Error(err))
				sse.Error(fmt.Sprintf("Слой «%s» недоступен", l.Name))
				continue
			}
			stats = append(stats, map[string]any{"Name": l.Name, "Stats": styled.Stats})
		}
		sse.Patch(h.RenderList("layer-status", stats, "Нет данных", "Источники слоёв не загружены"), "#layer-stats")
	}), nil
}

// Events streams visibility changes made by any client.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			sse.Signals(stateSignals(h.visibility.State()))

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					if ev.Resource != "visibility" {
						continue
					}
					sse.Signals(stateSignals(ev.State))
					sse.DispatchCustomEvent(VisibilityEvent, map[string]any{
						"layer": ev.ID, "state": ev.State,
					})
				}
			}
		},
	}, nil
}

// LegendSelector is the element that holds the legend of layer id.
func LegendSelector(id string) string {
	return "#" + id + "-legend"
}

func stateSignals(state service.VisibilityState) map[string]any {
	signals := make(map[string]any, len(state)+1)
	for id, visible := range state {
		signals[id] = visible
	}
	signals["error"] = ""
	return signals
}
