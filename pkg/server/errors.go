package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"avalanche-planner/pkg/planner"
	"avalanche-planner/pkg/store"
	"avalanche-planner/pkg/surface"
)

// ErrResponse is the error body of every failed request.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText    string   `json:"status"`
	ErrorText     string   `json:"error,omitempty"`
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := make([]string, 0, len(errV))
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

// ErrPlanner maps planner, surface and store errors to a response.
func ErrPlanner(err error) render.Renderer {
	code := statusCode(err)
	var text string
	switch code {
	case http.StatusBadRequest:
		text = "Bad request."
	case http.StatusNotFound:
		text = "Resource not found."
	case http.StatusServiceUnavailable:
		text = "Service unavailable."
	default:
		text = "Internal server error."
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     text,
		ErrorText:      err.Error(),
	}
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, surface.ErrOutOfDomain),
		errors.Is(err, planner.ErrUnknownSurface):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrSurfaceUnavailable),
		errors.Is(err, planner.ErrNoStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func translateError(err error, trans ut.Translator) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}
	out := make([]error, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, errors.New(e.Translate(trans)))
	}
	return out
}
