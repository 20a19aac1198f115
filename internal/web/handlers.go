package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/appsize/internal/config"
	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/service"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"history": s.service.HistoryEnabled(),
	})
}

// handleIOSVariants parses a report body into its variants.
func (s *Server) handleIOSVariants(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	variants, err := s.service.ParseIOS(r.Context(), bytes.NewReader(body))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, variants)
}

func (s *Server) handleIOSEvaluate(w http.ResponseWriter, r *http.Request) {
	opts, err := evaluationOptions(r.URL.Query(), s.service.IOSOptions())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	run, err := s.service.EvaluateIOS(r.Context(), bytes.NewReader(body), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// handleAndroidEvaluate evaluates a bundletool size CSV body.
func (s *Server) handleAndroidEvaluate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts, err := evaluationOptions(q, s.service.AndroidOptions())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	run, err := s.service.EvaluateAndroidCSV(r.Context(), bytes.NewReader(body),
		filterParams(q, s.service.AndroidFilter()), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// handleRunPage renders a run's markdown as an HTML page.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	html, err := renderMarkdown(run.Markdown)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RunPage(run, html).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// readBody reads the whole request body, which MaxBytesReader bounds.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyUpload
	}
	return body, nil
}

// evaluationOptions overrides defaults with the build_type, limit_size,
// limit_unit and fail_on_warning query parameters that are present.
func evaluationOptions(q url.Values, defaults policy.Options) (policy.Options, error) {
	opts := defaults
	if v := q.Get("build_type"); v != "" {
		opts.BuildType = v
	}
	if v := q.Get("limit_size"); v != "" {
		n, err := policy.ParseLimitSize(v)
		if err != nil {
			return policy.Options{}, err
		}
		opts.LimitSize = n
	}
	if v := q.Get("limit_unit"); v != "" {
		opts.LimitUnit = v
	}
	if v := q.Get("fail_on_warning"); v != "" {
		b, err := policy.ParseFailOnWarning(v)
		if err != nil {
			return policy.Options{}, err
		}
		opts.FailOnWarning = b
	}
	return opts, nil
}

// filterParams reads comma-separated densities and languages.
func filterParams(q url.Values, defaults service.Filter) service.Filter {
	f := defaults
	if v := config.SplitList(q.Get("densities")); len(v) > 0 {
		f.Densities = v
	}
	if v := config.SplitList(q.Get("languages")); len(v) > 0 {
		f.Languages = v
	}
	return f
}
