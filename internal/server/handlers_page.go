package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/pagebuilder-site/internal/isr"
	"github.com/jonathan/pagebuilder-site/internal/pages"
	"github.com/jonathan/pagebuilder-site/internal/preview"
	"github.com/jonathan/pagebuilder-site/internal/render"
	"github.com/jonathan/pagebuilder-site/internal/server/middleware"
)

// handlePage serves the catch-all page route.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	locale, segments, hasPrefix := s.router.Split(r.URL.Path)
	session := s.detector.HasSession(r)
	previewing := session || preview.IsEditorRequest(r)

	if target, ok := s.localeRedirect(r, segments, hasPrefix, previewing); ok {
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		return
	}

	key := isr.Key{Path: pages.LookupPath(segments), Locale: locale}

	var view render.View
	if session {
		// Signed preview sessions see unpublished edits, so they skip the cache.
		props, err := s.generator.GetStaticProps(r.Context(), pages.Params{Segments: segments, Locale: locale})
		if err != nil {
			s.pageError(w, r, key, err)
			return
		}
		view = render.View{
			State:      render.Select(render.Input{Page: props.Props.Page, IsPreviewing: true}),
			Props:      props.Props,
			Previewing: true,
		}
		w.Header().Set("Cache-Control", "private, no-store")
	} else {
		entry, status, err := s.cache.Lookup(r.Context(), key)
		if err != nil {
			s.pageError(w, r, key, err)
			return
		}
		w.Header().Set(CacheStatusHeader, status.String())

		switch {
		case entry == nil:
			view = render.View{
				State: render.Select(render.Input{IsFallback: true}),
				Props: pages.Props{Locale: locale},
			}
			w.Header().Set("Cache-Control", "no-store")
		case previewing:
			// Editor requests render the generated page but never the 404.
			view = render.View{
				State:      render.Select(render.Input{Page: entry.Props.Page, IsPreviewing: true}),
				Props:      entry.Props,
				Previewing: true,
			}
			w.Header().Set("Cache-Control", "private, no-store")
		default:
			view = render.View{
				State: render.Select(render.Input{Page: entry.Props.Page}),
				Props: entry.Props,
			}
			w.Header().Set("Cache-Control", s.cacheControl(entry))
		}
	}

	res, err := s.renderer.Render(view)
	if err != nil {
		s.pageError(w, r, key, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(res.Status)
	if _, err := w.Write(res.HTML); err != nil {
		s.log.Debug("failed to write page", "key", key.String(), "error", err)
	}
}

// localeRedirect sends visitors of the unprefixed root to their preferred
// locale when locale detection is on.
func (s *Server) localeRedirect(r *http.Request, segments []string, hasPrefix, previewing bool) (string, bool) {
	if !s.cfg.LocaleDetection || !s.router.Enabled() || hasPrefix || previewing || len(segments) > 0 {
		return "", false
	}
	detected := s.router.Detect(r.Header.Get("Accept-Language"))
	prefix := s.router.Prefix(detected)
	if prefix == "" {
		return "", false
	}
	target := prefix
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target, true
}

// cacheControl lets shared caches keep the page for what is left of its
// revalidate window.
func (s *Server) cacheControl(entry *isr.Entry) string {
	window := entry.Revalidate
	if window <= 0 {
		window = pages.Revalidate
	}
	left := window - s.now().Sub(entry.GeneratedAt)
	if left < time.Second {
		left = 0
	}
	return fmt.Sprintf("s-maxage=%d, stale-while-revalidate", int(left.Seconds()))
}

func (s *Server) pageError(w http.ResponseWriter, r *http.Request, key isr.Key, err error) {
	status := HTTPStatus(err)
	s.log.Error("page request failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"key", key.String(),
		"status", status,
		"error", err,
	)
	w.Header().Set("Cache-Control", "no-store")
	http.Error(w, strings.ToLower(http.StatusText(status)), status)
}
