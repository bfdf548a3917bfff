package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"

	"avalanche-planner/pkg/planner"
)

// RouteService computes and looks up routes.
type RouteService interface {
	ComputePath(ctx context.Context, req planner.Request) (*planner.Route, error)
	Route(id string) (*planner.Route, error)
	Available() []planner.Kind
}

type routeHandler struct {
	svc      RouteService
	validate *validator.Validate
	trans    ut.Translator
}

func newRouteHandler(svc RouteService) *routeHandler {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	validate := validator.New()
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &routeHandler{svc: svc, validate: validate, trans: trans}
}

// PointRequest is a projected coordinate.
type PointRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

func (p *PointRequest) point() orb.Point {
	return orb.Point{*p.X, *p.Y}
}

// RouteRequest is the body of POST /api/routes.
type RouteRequest struct {
	Surface  string        `json:"surface" validate:"required,oneof=classified windowed mesh"`
	Start    *PointRequest `json:"start" validate:"required"`
	End      *PointRequest `json:"end" validate:"required"`
	Simplify float64       `json:"simplify" validate:"gte=0"`
}

func (req *RouteRequest) Bind(r *http.Request) error {
	req.Surface = strings.ToLower(strings.TrimSpace(req.Surface))
	return nil
}

// ShortestPathRequest is the body of the POST /shortest-path endpoint used
// by the map UI. Surface is optional.
type ShortestPathRequest struct {
	Surface string        `json:"surface" validate:"omitempty,oneof=classified windowed mesh"`
	Start   *PointRequest `json:"start" validate:"required"`
	End     *PointRequest `json:"end" validate:"required"`
}

func (req *ShortestPathRequest) Bind(r *http.Request) error {
	req.Surface = strings.ToLower(strings.TrimSpace(req.Surface))
	return nil
}

// RouteResponse is a computed route. Polyline encodes the path in x,y order
// with five decimals.
type RouteResponse struct {
	ID          string       `json:"id"`
	Surface     planner.Kind `json:"surface"`
	Found       bool         `json:"found"`
	Stopped     bool         `json:"stopped,omitempty"`
	Path        [][2]float64 `json:"path"`
	Polyline    string       `json:"polyline,omitempty"`
	Nodes       int          `json:"nodes"`
	Cost        float64      `json:"cost"`
	Length      float64      `json:"length"`
	Explored    int          `json:"explored"`
	Ascent      float64      `json:"ascent,omitempty"`
	Descent     float64      `json:"descent,omitempty"`
	MaxCategory int          `json:"max_category"`
	ElapsedMs   int64        `json:"elapsed_ms"`
}

func NewRouteResponse(r *planner.Route) *RouteResponse {
	resp := &RouteResponse{
		ID:          r.ID,
		Surface:     r.Surface,
		Found:       r.Found,
		Stopped:     r.Stopped,
		Path:        coordinates(r.Path),
		Nodes:       r.Nodes,
		Cost:        r.Cost,
		Length:      r.Length,
		Explored:    r.Explored,
		Ascent:      r.Ascent,
		Descent:     r.Descent,
		MaxCategory: r.MaxCategory,
		ElapsedMs:   r.Elapsed.Milliseconds(),
	}
	if len(r.Path) > 0 {
		coords := make([][]float64, len(r.Path))
		for i, p := range r.Path {
			coords[i] = []float64{p[0], p[1]}
		}
		resp.Polyline = string(polyline.EncodeCoords(coords))
	}
	return resp
}

func coordinates(ls orb.LineString) [][2]float64 {
	out := make([][2]float64, len(ls))
	for i, p := range ls {
		out[i] = [2]float64(p)
	}
	return out
}

func (h *routeHandler) bindAndValidate(w http.ResponseWriter, r *http.Request, data render.Binder) bool {
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return false
	}
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

func (h *routeHandler) computeRoute(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if !h.bindAndValidate(w, r, data) {
		return
	}

	route, err := h.svc.ComputePath(r.Context(), planner.Request{
		Surface:  planner.Kind(data.Surface),
		Start:    data.Start.point(),
		End:      data.End.point(),
		Simplify: data.Simplify,
	})
	if err != nil {
		render.Render(w, r, ErrPlanner(err))
		return
	}
	h.respond(w, r, route)
}

func (h *routeHandler) getRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.svc.Route(chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrPlanner(err))
		return
	}
	h.respond(w, r, route)
}

func (h *routeHandler) respond(w http.ResponseWriter, r *http.Request, route *planner.Route) {
	render.Status(r, http.StatusOK)
	if r.URL.Query().Get("format") == "geojson" {
		render.JSON(w, r, route.FeatureCollection())
		return
	}
	render.JSON(w, r, NewRouteResponse(route))
}

// shortestPath answers with the bare coordinate list of the route, empty
// when none was found.
func (h *routeHandler) shortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if !h.bindAndValidate(w, r, data) {
		return
	}

	kind := planner.Kind(data.Surface)
	if kind == "" {
		var err error
		if kind, err = h.defaultSurface(); err != nil {
			render.Render(w, r, ErrPlanner(err))
			return
		}
	}

	route, err := h.svc.ComputePath(r.Context(), planner.Request{
		Surface: kind,
		Start:   data.Start.point(),
		End:     data.End.point(),
	})
	if err != nil {
		render.Render(w, r, ErrPlanner(err))
		return
	}

	path := [][2]float64{}
	if route.Found && len(route.Path) > 1 {
		path = coordinates(route.Path)
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, path)
}

// defaultSurface prefers the windowed surface, then the first loaded one.
func (h *routeHandler) defaultSurface() (planner.Kind, error) {
	avail := h.svc.Available()
	for _, k := range avail {
		if k == planner.Windowed {
			return k, nil
		}
	}
	if len(avail) == 0 {
		return "", errors.Join(planner.ErrSurfaceUnavailable, errors.New("no surface loaded"))
	}
	return avail[0], nil
}

// HealthResponse reports the loaded surfaces.
type HealthResponse struct {
	Status   string         `json:"status"`
	Surfaces []planner.Kind `json:"surfaces"`
}

func (h *routeHandler) health(w http.ResponseWriter, r *http.Request) {
	surfaces := h.svc.Available()
	if surfaces == nil {
		surfaces = []planner.Kind{}
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HealthResponse{Status: "ok", Surfaces: surfaces})
}
