package optionsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/pkg/orchestrator"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
)

// Pages is the subset of *orchestrator.Orchestrator the handlers use.
type Pages interface {
	Resolve(ctx context.Context, req orchestrator.Request) (render.Page, error)
	Generate(ctx context.Context, req orchestrator.Request) ([]byte, error)
	Renderer(name string) (render.Renderer, error)
}

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type optionsResponse struct {
	Data []resolve.Option `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	pages Pages
	opts  Options
}

func (h handlers) render(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	renderer, err := h.pages.Renderer(req.Renderer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	output, err := h.pages.Generate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(output) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

func (h handlers) options(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	field := chi.URLParam(r, "field")

	page, err := h.pages.Resolve(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var (
		directive render.Directive
		found     bool
	)
	for _, d := range page.Directives {
		if d.Field == field {
			directive, found = d, true
			break
		}
	}
	if !found {
		h.fail(w, r, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("optionsapi: field %q has no instance select", field)})
		return
	}

	query := r.URL.Query()
	results := Search(directive.Options.Options(), query.Get(h.opts.SearchParam), parseInt(query.Get(h.opts.LimitParam)), h.opts)
	if results == nil {
		results = []resolve.Option{}
	}
	writeJSON(w, http.StatusOK, optionsResponse{Data: results})
}

// request maps path and query parameters onto an orchestrator request.
func (h handlers) request(r *http.Request) (orchestrator.Request, error) {
	query := r.URL.Query()
	projectID, err := strconv.Atoi(chi.URLParam(r, "project"))
	if err != nil || projectID <= 0 {
		return orchestrator.Request{}, StatusError{Code: http.StatusBadRequest, Err: errors.New("optionsapi: invalid project id")}
	}
	eventID, err := strconv.Atoi(query.Get("event_id"))
	if err != nil || eventID <= 0 {
		return orchestrator.Request{}, StatusError{Code: http.StatusBadRequest, Err: errors.New("optionsapi: event_id is required")}
	}
	instance := 0
	if raw := query.Get("instance"); raw != "" {
		instance, err = strconv.Atoi(raw)
		if err != nil || instance < 0 {
			return orchestrator.Request{}, StatusError{Code: http.StatusBadRequest, Err: errors.New("optionsapi: invalid instance")}
		}
	}
	survey, _ := strconv.ParseBool(query.Get("survey"))
	group := query.Get("group_id")
	if h.opts.Group != nil {
		group = h.opts.Group(r)
	}

	return orchestrator.Request{
		ProjectID:      projectID,
		Record:         query.Get("record"),
		Form:           chi.URLParam(r, "form"),
		EventID:        eventID,
		GroupID:        group,
		Instance:       instance,
		Survey:         survey,
		ParentInstance: query.Get("parent_instance"),
		Renderer:       query.Get("renderer"),
	}, nil
}

func (h handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.opts.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, code, errorResponse{Error: http.StatusText(code)})
		return
	}
	h.opts.Logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.StatusCode()
	case errors.Is(err, orchestrator.ErrInvalidRequest), errors.Is(err, render.ErrRendererNotFound):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrProjectNotFound), errors.Is(err, orchestrator.ErrFormNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func guard(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Guard != nil {
				if err := opts.Guard(r); err != nil {
					writeGuardError(w, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, err error) {
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	writeJSON(w, code, errorResponse{Error: http.StatusText(code)})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
