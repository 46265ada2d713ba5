package analyzeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/bizpulse/internal/business"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	an, ok := a.analyze(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Analysis-Id", an.ID)
	writeJSON(w, http.StatusOK, an)
}

func (a *API) handleAnalyzeOutput(w http.ResponseWriter, r *http.Request) {
	an, ok := a.analyze(w, r)
	if !ok {
		return
	}

	body, err := business.RenderJSON(an.Output)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to render output", "id", an.ID)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Analysis-Id", an.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) handleRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": business.Rules(),
	})
}

// analyze decodes and runs the request. It writes the error response itself
// and reports false when the handler should stop.
func (a *API) analyze(w http.ResponseWriter, r *http.Request) (*business.Analysis, bool) {
	body := r.Body
	if a.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, a.maxBody)
	}

	req, err := business.DecodeJSON(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload too large"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return nil, false
	}

	var opts business.AnalyzeOptions
	if v := r.URL.Query().Get("narrate"); v != "" {
		narrate, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid narrate parameter"})
			return nil, false
		}
		opts.Narrate = narrate
	}

	an, err := a.svc.Analyze(r.Context(), req, opts)
	if err != nil {
		a.writeAnalyzeError(w, r, err)
		return nil, false
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("bizpulse.analysis.id", an.ID),
		attribute.Int("bizpulse.alerts", len(an.Output.Alerts)),
	)
	return an, true
}

func (a *API) writeAnalyzeError(w http.ResponseWriter, r *http.Request, err error) {
	var mf *business.MissingFieldError
	var ae *business.ArithmeticError

	switch {
	case errors.As(err, &mf):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: mf.Field})
	case errors.As(err, &ae):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: ae.Field})
	default:
		a.logger.Error(r.Context(), err, "analysis failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}
