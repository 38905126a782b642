// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/maptile"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/service"
	"github.com/joeblew999/forest-map/internal/tiles"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Layer      *service.LayerService
	Source     *service.SourceService
	Feature    *service.FeatureService
	Visibility *service.VisibilityController
	Logger     *zap.Logger
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"trees"`
}

// LayerView is a layer together with its current visibility.
type LayerView struct {
	service.LayerConfig
	Visible bool `json:"visible" doc:"Whether the layer is currently shown"`
}

type LayerOutput struct {
	Body LayerView
}

type LayersOutput struct {
	Body []LayerView
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type MapBody struct {
	View       service.MapView         `json:"view" doc:"Initial viewport"`
	Layers     []service.LayerConfig   `json:"layers" doc:"Layers in draw order"`
	Visibility service.VisibilityState `json:"visibility" doc:"Current visibility per layer ID"`
}

type VisibilityInput struct {
	IDInput
	Body struct {
		Visible bool `json:"visible" doc:"Checkbox state"`
	}
}

type VisibilityOutput struct {
	Body struct {
		Visibility service.VisibilityState `json:"visibility" doc:"Visibility of every layer after the change"`
	}
}

type LegendBody struct {
	Species []classify.LegendItem `json:"species" doc:"Tree species legend"`
	Index   []classify.LegendItem `json:"index" doc:"HBR index legend"`
}

type ClassifySpeciesInput struct {
	Label string `query:"label" doc:"Species label (attribute VMR)" example:"Сосна"`
}

type ClassifyIndexInput struct {
	Value float64 `query:"value" required:"true" doc:"HBR index value" example:"0.6"`
}

type ClassifyBody struct {
	Color   string `json:"color" doc:"Fill colour" example:"#ccff00"`
	Matched bool   `json:"matched" doc:"Whether a table entry matched"`
	Label   string `json:"label,omitempty" doc:"Legend label of the matching entry"`
}

type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type TileInput struct {
	IDInput
	Z int `path:"z" minimum:"0" maximum:"14" doc:"Zoom level"`
	X int `path:"x" minimum:"0" maximum:"16383" doc:"Tile column"`
	Y int `path:"y" minimum:"0" maximum:"16383" doc:"Tile row"`
}

type TileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	CacheControl    string `header:"Cache-Control"`
	Body            []byte
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST handler of svc on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers the map, layer and visibility routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}/visibility", h.PutVisibility, huma.OperationTags("layers"))
}

// RegisterFeatures registers the styled feature and vector tile routes.
func (h *APIHandler) RegisterFeatures(api huma.API) {
	huma.Get(api, "/api/v1/layers/{id}/features", h.GetFeatures, huma.OperationTags("features"))
	huma.Get(api, "/api/v1/layers/{id}/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("features"))
}

// RegisterClassify registers the legend and classifier routes.
func (h *APIHandler) RegisterClassify(api huma.API) {
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("classify"))
	huma.Get(api, "/api/v1/classify/species", h.ClassifySpecies, huma.OperationTags("classify"))
	huma.Get(api, "/api/v1/classify/index", h.ClassifyIndex, huma.OperationTags("classify"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body MapBody }, error) {
	return &struct{ Body MapBody }{Body: MapBody{
		View:       service.DefaultView,
		Layers:     h.svc.Layer.List(),
		Visibility: h.svc.Visibility.State(),
	}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	state := h.svc.Visibility.State()
	layers := h.svc.Layer.List()
	out := make([]LayerView, 0, len(layers))
	for _, l := range layers {
		out = append(out, LayerView{LayerConfig: l, Visible: state[l.ID]})
	}
	return &LayersOutput{Body: out}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	layer, ok := h.svc.Layer.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("layer %q not found", input.ID))
	}
	return &LayerOutput{Body: LayerView{LayerConfig: layer, Visible: h.svc.Visibility.State()[layer.ID]}}, nil
}

func (h *APIHandler) PutVisibility(ctx context.Context, input *VisibilityInput) (*VisibilityOutput, error) {
	state, err := h.svc.Visibility.Toggle(input.ID, input.Body.Visible)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	out := &VisibilityOutput{}
	out.Body.Visibility = state
	return out, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *IDInput) (*FeaturesOutput, error) {
	styled, err := h.svc.Feature.Styled(ctx, input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	data, err := styled.Features.MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("encode features", err)
	}
	return &FeaturesOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	t := maptile.New(uint32(input.X), uint32(input.Y), maptile.Zoom(input.Z))
	if err := tiles.Validate(t); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	styled, err := h.svc.Feature.Styled(ctx, input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	data, err := tiles.Tile(styled.Features, input.ID, t)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	if data == nil {
		return &TileOutput{Status: http.StatusNoContent}, nil
	}
	return &TileOutput{
		Status:          http.StatusOK,
		ContentType:     "application/vnd.mapbox-vector-tile",
		ContentEncoding: "gzip",
		CacheControl:    "public, max-age=3600",
		Body:            data,
	}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body LegendBody }, error) {
	return &struct{ Body LegendBody }{Body: LegendBody{
		Species: classify.SpeciesLegend(),
		Index:   classify.IndexLegend(),
	}}, nil
}

func (h *APIHandler) ClassifySpecies(ctx context.Context, input *ClassifySpeciesInput) (*struct{ Body ClassifyBody }, error) {
	color := classify.SpeciesColor(input.Label)
	body := ClassifyBody{Color: color, Label: classify.NoDataLabel}
	for _, e := range classify.SpeciesTable() {
		if e.Label == input.Label {
			body.Matched = true
			body.Label = e.Label
			break
		}
	}
	return &struct{ Body ClassifyBody }{Body: body}, nil
}

func (h *APIHandler) ClassifyIndex(ctx context.Context, input *ClassifyIndexInput) (*struct{ Body ClassifyBody }, error) {
	body := ClassifyBody{Color: classify.IndexColor(input.Value)}
	for _, b := range classify.IndexBands() {
		if b.Contains(input.Value) {
			body.Matched = true
			body.Label = b.Label()
			break
		}
	}
	return &struct{ Body ClassifyBody }{Body: body}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	sources, err := h.svc.Source.List()
	if err != nil {
		return nil, h.toHumaError(err)
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

// toHumaError maps service errors to HTTP status codes.
func (h *APIHandler) toHumaError(err error) error {
	switch {
	case eris.Is(err, service.ErrUnknownLayer):
		return huma.Error404NotFound(err.Error())
	case eris.Is(err, service.ErrSourceNotFound):
		return huma.Error404NotFound(err.Error())
	case eris.Is(err, service.ErrNotOverlay), eris.Is(err, service.ErrInvalidSource):
		return huma.Error400BadRequest(err.Error())
	case eris.Is(err, tiles.ErrOutOfRange):
		return huma.Error400BadRequest(err.Error())
	}
	if h.svc.Logger != nil {
		h.svc.Logger.Error("request failed", zap.Error(err))
	}
	return huma.Error500InternalServerError("internal error")
}
