package main

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

//go:embed frontend
var frontendFS embed.FS

const maxUploadSize = 10 << 20 // 10 MB

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops visitors idle for longer than maxIdle.
func (rl *rateLimiter) sweep(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.visitors {
		if time.Since(b.lastSeen) > maxIdle {
			delete(rl.visitors, ip)
		}
	}
}

// Server is the main HTTP server.
type Server struct {
	mux      *http.ServeMux
	store    LetterStore
	sessions *SessionRegistry
	gemini   *GeminiClient
	alphabet Alphabet
	sse      *Broadcaster
	log      *zap.Logger
	evalRL   *rateLimiter
	scanRL   *rateLimiter
}

// NewServer creates a configured HTTP server. gemini may be nil, in which
// case scanning is disabled.
func NewServer(store LetterStore, sessions *SessionRegistry, gemini *GeminiClient, alphabet Alphabet, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		store:    store,
		sessions: sessions,
		gemini:   gemini,
		alphabet: alphabet,
		sse:      NewBroadcaster(),
		log:      log,
		evalRL:   newRateLimiter(20, time.Second), // 20 evaluations/sec per IP
		scanRL:   newRateLimiter(5, time.Minute),  // 5 scans/min per IP
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Lookup service
	s.mux.HandleFunc("GET /api/{letter}", s.handleLookup)
	s.mux.HandleFunc("GET /api/letters", s.handleListLetters)
	s.mux.HandleFunc("PUT /api/letters/{letter}", s.handlePutLetter)

	// Puzzle sessions
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/tiles", s.handleAppendTile)
	s.mux.HandleFunc("DELETE /api/sessions/{id}/tiles/{index}", s.handleRemoveTile)
	s.mux.HandleFunc("POST /api/sessions/{id}/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("POST /api/sessions/{id}/scan", s.handleScan)
	s.mux.HandleFunc("GET /api/sessions/{id}/events", s.handleSessionEvents)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	s.mux.Handle("GET /", http.FileServer(http.FS(frontendDir)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// sweepLimiters periodically forgets idle visitors until done is closed.
func (s *Server) sweepLimiters(done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.evalRL.sweep(5 * time.Minute)
			s.scanRL.sweep(5 * time.Minute)
		}
	}
}

// --- Lookup handlers ---

// GET /api/{letter} — value of a single letter.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), r.PathValue("letter"))
	if errors.Is(err, ErrLetterNotFound) {
		jsonError(w, "Letter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("letter lookup failed", zap.String("letter", r.PathValue("letter")), zap.Error(err))
		jsonError(w, "Server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GET /api/letters — all letter documents.
func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list letters failed", zap.Error(err))
		jsonError(w, "Server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*LetterRecord{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// PUT /api/letters/{letter} — set the value of a letter.
func (s *Server) handlePutLetter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value *int64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		jsonError(w, "Field 'value' required", http.StatusBadRequest)
		return
	}

	rec := &LetterRecord{Letter: r.PathValue("letter"), Value: *req.Value}
	err := s.store.Put(r.Context(), rec)
	if errors.Is(err, ErrInvalidLetter) {
		jsonError(w, "Letter must be a single symbol", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("store letter failed", zap.String("letter", rec.Letter), zap.Error(err))
		jsonError(w, "Server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// --- Session handlers ---

// POST /api/sessions — start a new puzzle.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.log.Info("session created", zap.String("session", sess.ID))

	s.writeJSON(w, http.StatusCreated, struct {
		SessionView
		Alphabet string `json:"alphabet"`
	}{
		SessionView: sess.View(),
		Alphabet:    s.alphabet.String(),
	})
}

// GET /api/sessions — list sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	list := s.sessions.List()
	views := make([]SessionView, len(list))
	for i, sess := range list {
		views[i] = sess.View()
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GET /api/sessions/{id} — current equation, state and last outcome.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.View())
}

// DELETE /api/sessions/{id} — discard a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.Delete(id) {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.sse.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/sessions/{id}/tiles — append a tile, given either as a symbol or
// as typed right-hand side input.
func (s *Server) handleAppendTile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	var req struct {
		Symbol *string `json:"symbol"`
		RHS    *string `json:"rhs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Symbol == nil) == (req.RHS == nil) {
		jsonError(w, "Exactly one of 'symbol' or 'rhs' required", http.StatusBadRequest)
		return
	}

	var tile Tile
	if req.RHS != nil {
		n, err := ParseRHS(*req.RHS)
		if err != nil {
			jsonError(w, "Please enter a valid RHS", http.StatusBadRequest)
			return
		}
		tile = Integer(n)
	} else {
		t, err := ParseTile(*req.Symbol, s.alphabet)
		if err != nil {
			jsonError(w, "Unknown symbol", http.StatusBadRequest)
			return
		}
		tile = t
	}

	if err := sess.Engine().Append(tile); err != nil {
		jsonError(w, "Evaluation in progress", http.StatusConflict)
		return
	}

	view := sess.View()
	s.publish(sess.ID, Event{Type: "tile_added", Payload: map[string]any{
		"index": len(view.Tiles) - 1,
		"tile":  tile,
	}})
	s.writeJSON(w, http.StatusCreated, view)
}

// DELETE /api/sessions/{id}/tiles/{index} — remove a tile.
func (s *Server) handleRemoveTile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		jsonError(w, "Invalid index", http.StatusBadRequest)
		return
	}

	tile, err := sess.Engine().Remove(index)
	switch {
	case errors.Is(err, ErrBusy):
		jsonError(w, "Evaluation in progress", http.StatusConflict)
		return
	case errors.Is(err, ErrIndexOutOfRange):
		jsonError(w, "Position out of range", http.StatusBadRequest)
		return
	}

	s.publish(sess.ID, Event{Type: "tile_removed", Payload: map[string]any{
		"index": index,
		"tile":  tile,
	}})
	s.writeJSON(w, http.StatusOK, sess.View())
}

// POST /api/sessions/{id}/evaluate — evaluate the equation.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !s.evalRL.allow(clientIP(r)) {
		jsonError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	out, err := sess.Engine().Evaluate(r.Context())
	if errors.Is(err, ErrBusy) {
		jsonError(w, "Evaluation in progress", http.StatusConflict)
		return
	}
	sess.Record(out, err)

	if err != nil {
		kind, msg, code := classifyEvalError(err)
		s.log.Info("evaluation failed", zap.String("session", sess.ID), zap.String("kind", kind), zap.Error(err))
		s.publish(sess.ID, Event{Type: "evaluated", Payload: map[string]string{"kind": kind, "error": msg}})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"kind": kind, "error": msg})
		return
	}

	s.publish(sess.ID, Event{Type: "evaluated", Payload: out})
	s.writeJSON(w, http.StatusOK, out)
}

// classifyEvalError maps an evaluation failure to its kind, a user message
// and an HTTP status.
func classifyEvalError(err error) (kind, msg string, code int) {
	switch {
	case errors.Is(err, ErrInvalidEquation):
		return "invalid_equation", "Invalid equation", http.StatusUnprocessableEntity
	case errors.Is(err, ErrResolutionFailed):
		return "resolution_failed", "Letter resolution failed", http.StatusBadGateway
	case errors.Is(err, ErrDivisionByZero):
		return "reduction_error", "Division by zero", http.StatusUnprocessableEntity
	case errors.Is(err, ErrOverflow):
		return "reduction_error", "Arithmetic overflow", http.StatusUnprocessableEntity
	case errors.Is(err, ErrReduction):
		return "reduction_error", "Equation could not be reduced", http.StatusUnprocessableEntity
	}
	return "internal", "Server error", http.StatusInternalServerError
}

// POST /api/sessions/{id}/scan — read tiles from a photo and append them.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !s.scanRL.allow(clientIP(r)) {
		jsonError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	if s.gemini == nil {
		jsonError(w, "Image scanning not configured", http.StatusServiceUnavailable)
		return
	}

	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "Image too large (max 10 MB)", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "Field 'image' required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, "Accepted formats: JPEG or PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "Could not read image", http.StatusInternalServerError)
		return
	}

	tiles, err := s.gemini.ScanEquation(r.Context(), imageData, mimeType, s.alphabet)
	if err != nil {
		s.log.Error("gemini scan failed", zap.String("session", sess.ID), zap.Error(err))
		jsonError(w, "Could not read the equation", http.StatusInternalServerError)
		return
	}

	for _, t := range tiles {
		if err := sess.Engine().Append(t); err != nil {
			jsonError(w, "Evaluation in progress", http.StatusConflict)
			return
		}
	}

	view := sess.View()
	s.publish(sess.ID, Event{Type: "equation", Payload: view})
	s.writeJSON(w, http.StatusCreated, view)
}

// GET /api/sessions/{id}/events — SSE stream.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	s.sse.ServeSSE(w, r, sess.ID, func(c *client) {
		// Send the current equation on connect.
		evt, _ := json.Marshal(Event{Type: "equation", Payload: sess.View()})
		c.ch <- string(evt)
	})
}

// --- Helpers ---

// clientIP returns the host part of the remote address so every connection
// from one client shares a rate limit bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) publish(sessionID string, evt Event) {
	if err := s.sse.Publish(sessionID, evt); err != nil {
		s.log.Warn("publish event failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// writeJSON writes v with the given status, or a 500 when v cannot be
// encoded.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode response failed", zap.Error(err))
		jsonError(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
