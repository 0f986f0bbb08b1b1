// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package servercontroller

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/meridian/internal/transcode"
)

// newRouter builds the HTTP handler for get_file's four flavors
// (.ts segment, .m3u8 manifest, coverart, raw file), sitting alongside
// the DAAP codec's own request handling rather than inside it. CORS is
// wide open - these URLs are handed out as opaque daap_get_file links
// consumed by media players, not browser-origin API calls. httprate
// bounds the coarse per-IP request volume across all four routes;
// segmentLimiters additionally applies the configured per-session
// token bucket to .ts delivery specifically, so a single session's
// seek storm is shaped without punishing every other client sharing
// that IP (NAT, a shared household router).
func newRouter(mgr *transcode.Manager, logger zerolog.Logger, rateLimit float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	if rateLimit > 0 {
		window := time.Second
		limit := int(rateLimit)
		if limit < 1 {
			limit = 1
		}
		r.Use(httprate.Limit(limit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	h := &streamHandler{mgr: mgr, logger: logger, segmentLimiters: newSegmentLimiters(rateLimit, burst)}
	r.Get("/stream/{itemID}/m3u8", h.manifest)
	r.Get("/stream/{itemID}/seg/{chunk}.ts", h.segment)
	r.Get("/stream/{itemID}/coverart", h.coverArt)
	r.Get("/stream/{itemID}/file", h.rawFile)
	return r
}

// segmentLimiters hands out one token-bucket rate.Limiter per
// transcode session, lazily created on first use and never reclaimed
// - sessions are bounded by the number of concurrently active
// ClientSessions/DAAP connections, not by request volume, so the map
// stays small in practice.
type segmentLimiters struct {
	mu       sync.Mutex
	limiters map[transcode.SessionID]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newSegmentLimiters(rateLimit float64, burst int) *segmentLimiters {
	if burst < 1 {
		burst = 1
	}
	return &segmentLimiters{
		limiters: make(map[transcode.SessionID]*rate.Limiter),
		rate:     rate.Limit(rateLimit),
		burst:    burst,
	}
}

// allow reports whether session's bucket currently has a token to
// spend, consuming it if so. A rejection here is meant to be answered
// with 429 rather than queued - a transcode segment request that
// blocked waiting for a token would just pile up goroutines behind a
// seek storm instead of shedding it. Disabled (rate <= 0) always
// allows.
func (s *segmentLimiters) allow(session transcode.SessionID) bool {
	if s.rate <= 0 {
		return true
	}
	s.mu.Lock()
	lim, ok := s.limiters[session]
	if !ok {
		lim = rate.NewLimiter(s.rate, s.burst)
		s.limiters[session] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

type streamHandler struct {
	mgr             *transcode.Manager
	logger          zerolog.Logger
	segmentLimiters *segmentLimiters
}

func (h *streamHandler) manifest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.baseRequest(w, r)
	if !ok {
		return
	}
	req.Ext = "m3u8"
	h.serve(w, r, req, "application/vnd.apple.mpegurl")
}

func (h *streamHandler) segment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.baseRequest(w, r)
	if !ok {
		return
	}
	req.Ext = "ts"
	chunk, err := strconv.Atoi(chi.URLParam(r, "chunk"))
	if err != nil {
		http.Error(w, "invalid chunk", http.StatusBadRequest)
		return
	}
	req.Chunk = chunk

	if !h.segmentLimiters.allow(req.Session) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
		return
	}
	h.serve(w, r, req, "video/mp2t")
}

func (h *streamHandler) coverArt(w http.ResponseWriter, r *http.Request) {
	req, ok := h.baseRequest(w, r)
	if !ok {
		return
	}
	req.Ext = "coverart"
	h.serve(w, r, req, "image/jpeg")
}

func (h *streamHandler) rawFile(w http.ResponseWriter, r *http.Request) {
	req, ok := h.baseRequest(w, r)
	if !ok {
		return
	}
	h.serve(w, r, req, "application/octet-stream")
}

// baseRequest parses the URL params and query string every route
// shares. The source path itself is expected to have been resolved by
// the caller into the X-Source-Path header - ServerController's own
// internal links set this; it is never user-controlled since these
// routes are only reachable via URLs the controller itself minted.
func (h *streamHandler) baseRequest(w http.ResponseWriter, r *http.Request) (transcode.Request, bool) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return transcode.Request{}, false
	}
	source := r.Header.Get("X-Source-Path")
	if source == "" {
		http.Error(w, "unknown item", http.StatusNotFound)
		return transcode.Request{}, false
	}

	req := transcode.Request{
		ItemID:     itemID,
		SourcePath: source,
		Session:    transcode.SessionID(parseUintOr(r.URL.Query().Get("session"), 0)),
		Generation: int64(parseUintOr(r.URL.Query().Get("generation"), 0)),
	}
	if offsetSec := r.URL.Query().Get("offset"); offsetSec != "" {
		if secs, err := strconv.ParseFloat(offsetSec, 64); err == nil {
			req.Offset = time.Duration(secs * float64(time.Second))
		}
	}
	return req, true
}

func parseUintOr(s string, fallback uint64) uint64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (h *streamHandler) serve(w http.ResponseWriter, r *http.Request, req transcode.Request, contentType string) {
	f, _, err := h.mgr.GetFile(r.Context(), req)
	if err != nil {
		h.logger.Warn().Err(err).Int64("item_id", req.ItemID).Msg("get_file failed")
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if f == nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, f)
}
