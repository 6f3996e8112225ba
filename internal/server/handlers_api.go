package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/pagebuilder-site/internal/i18n"
	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/jonathan/pagebuilder-site/internal/preview"
	"github.com/jonathan/pagebuilder-site/internal/server/middleware"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// DataResponse is the JSON form of generated page props.
type DataResponse struct {
	Props        pages.Props `json:"props"`
	NotFound     bool        `json:"notFound,omitempty"`
	Revalidate   int         `json:"revalidate"`
	GeneratedAt  time.Time   `json:"generatedAt"`
	GenerationID uuid.UUID   `json:"generationId"`
	Cache        string      `json:"cache"`
}

func newDataResponse(entry *isr.Entry, status isr.Status) DataResponse {
	window := entry.Revalidate
	if window <= 0 {
		window = pages.Revalidate
	}
	return DataResponse{
		Props:        entry.Props,
		NotFound:     entry.Props.Page == nil,
		Revalidate:   int(window.Seconds()),
		GeneratedAt:  entry.GeneratedAt,
		GenerationID: entry.GenerationID,
		Cache:        status.String(),
	}
}

// handlePaths returns the route's static path declaration.
func (s *Server) handlePaths(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, pages.ListPaths(s.router.Locales()))
}

// handleData returns the props for a page, generating them when none exist yet.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	locale, segments, _ := s.router.Split("/" + r.PathValue("path"))
	if q := r.URL.Query().Get("locale"); q != "" {
		l, err := s.configuredLocale(q)
		if err != nil {
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		locale = l
	}
	key := isr.Key{Path: pages.LookupPath(segments), Locale: locale}

	entry, status, err := s.cache.Lookup(r.Context(), key)
	if err == nil && entry == nil {
		entry, err = s.cache.Generate(r.Context(), key)
	}
	if err != nil {
		s.apiError(w, r, "page data request failed", key, err)
		return
	}

	resp := newDataResponse(entry, status)
	if resp.NotFound {
		s.jsonResponse(w, http.StatusNotFound, resp)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// RevalidateRequest is the body of an on-demand revalidation.
type RevalidateRequest struct {
	Path   string `json:"path" validate:"required,startswith=/,max=2048"`
	Locale string `json:"locale,omitempty"`
	Mode   string `json:"mode,omitempty" validate:"omitempty,oneof=regenerate invalidate"`
}

// RevalidateResponse reports an on-demand revalidation.
type RevalidateResponse struct {
	Revalidated  bool      `json:"revalidated"`
	Path         string    `json:"path"`
	Locale       string    `json:"locale,omitempty"`
	Mode         string    `json:"mode"`
	Found        *bool     `json:"found,omitempty"`
	GenerationID uuid.UUID `json:"generationId,omitzero"`
	GeneratedAt  time.Time `json:"generatedAt,omitzero"`
}

// handleRevalidate regenerates or drops one page on demand.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req RevalidateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	locale := s.router.DefaultLocale()
	if req.Locale != "" {
		l, err := s.configuredLocale(req.Locale)
		if err != nil {
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		locale = l
	}
	key := isr.Key{Path: pages.LookupPath(i18n.Segments(req.Path)), Locale: locale}

	resp := RevalidateResponse{Path: key.Path, Locale: key.Locale, Mode: req.Mode}
	if resp.Mode == "" {
		resp.Mode = "regenerate"
	}

	switch resp.Mode {
	case "invalidate":
		if err := s.cache.Invalidate(r.Context(), key); err != nil {
			s.apiError(w, r, "invalidation failed", key, err)
			return
		}
	default:
		entry, err := s.cache.Generate(r.Context(), key)
		if err != nil {
			s.apiError(w, r, "revalidation failed", key, err)
			return
		}
		found := entry.Props.Page != nil
		resp.Found = &found
		resp.GenerationID = entry.GenerationID
		resp.GeneratedAt = entry.GeneratedAt
	}

	resp.Revalidated = true
	s.log.Info("page revalidated",
		"request_id", middleware.GetRequestID(r.Context()),
		"key", key.String(),
		"mode", resp.Mode,
	)
	s.jsonResponse(w, http.StatusOK, resp)
}

// handlePreview opens a preview session and redirects to the previewed page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		err := &ErrNotConfigured{Feature: "preview mode"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	q := r.URL.Query()
	if !s.sessions.VerifySecret(q.Get("secret")) {
		err := &ErrUnauthorized{Reason: "invalid preview secret"}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	slug, err := preview.CleanSlug(q.Get("slug"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.sessions.Issue(slug)
	if err != nil {
		s.log.Error("failed to issue preview session", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to start preview")
		return
	}

	http.SetCookie(w, s.sessions.Cookie(token, s.cfg.SecureCookies))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, slug, http.StatusTemporaryRedirect)
}

// handlePreviewExit ends the preview session.
func (s *Server) handlePreviewExit(w http.ResponseWriter, r *http.Request) {
	slug, err := preview.CleanSlug(r.URL.Query().Get("slug"))
	if err != nil {
		slug = "/"
	}
	http.SetCookie(w, preview.ClearCookie(s.cfg.SecureCookies))
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, slug, http.StatusTemporaryRedirect)
}

// configuredLocale maps a requested locale onto the configured ones.
func (s *Server) configuredLocale(locale string) (string, error) {
	if !s.router.Enabled() {
		return "", &ErrValidation{Field: "locale", Message: "no locales are configured"}
	}
	name, ok := s.router.Lookup(locale)
	if !ok {
		return "", &ErrValidation{Field: "locale", Message: fmt.Sprintf("unknown locale %q", locale)}
	}
	return name, nil
}

// validateRequest runs struct validation and reports the first failing field.
func (s *Server) validateRequest(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed on '%s' rule", fe.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, msg string, key isr.Key, err error) {
	status := HTTPStatus(err)
	s.log.Error(msg,
		"request_id", middleware.GetRequestID(r.Context()),
		"key", key.String(),
		"status", status,
		"error", err,
	)
	s.errorResponse(w, status, msg)
}
