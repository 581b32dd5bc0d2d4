package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"weekgrid/internal/chips"
	"weekgrid/internal/config"
	"weekgrid/internal/grid"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/viewport"
)

// Server exposes one grid over a small JSON API. A client renders the grid
// from /api/viewport and /api/chips and forwards input to the POST
// endpoints.
type Server struct {
	cfg     *config.Config
	grid    *grid.Grid
	refresh func(context.Context) error
	mux     *http.ServeMux
}

// NewServer constructs a new Server. refresh is called by POST /api/refresh;
// nil means g.Refresh.
func NewServer(cfg *config.Config, g *grid.Grid, refresh func(context.Context) error) *Server {
	if refresh == nil {
		refresh = g.Refresh
	}
	s := &Server{
		cfg:     cfg,
		grid:    g,
		refresh: refresh,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="weekgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/viewport", s.handleViewport)
	s.mux.HandleFunc("POST /api/resize", s.handleResize)
	s.mux.HandleFunc("POST /api/scroll", s.handleScroll)
	s.mux.HandleFunc("POST /api/zoom", s.handleZoom)
	s.mux.HandleFunc("POST /api/scroll-to", s.handleScrollTo)

	s.mux.HandleFunc("GET /api/chips", s.handleChips)
	s.mux.HandleFunc("GET /api/hit", s.handleHit)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleEvent)
	s.mux.HandleFunc("GET /api/periods", s.handlePeriods)

	s.mux.HandleFunc("GET /api/nodes", s.handleNodes)
	s.mux.HandleFunc("POST /api/nodes/{id}/activate", s.handleActivateNode)

	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// viewportResponse is the JSON shape of /api/viewport and every mutating
// endpoint. LoadError is set when the grid moved but a month failed to load.
type viewportResponse struct {
	grid.Snapshot
	LoadError string `json:"load_error,omitempty"`
}

func (s *Server) writeViewport(w http.ResponseWriter, loadErr error) {
	resp := viewportResponse{Snapshot: s.grid.Snapshot()}
	if loadErr != nil {
		resp.LoadError = loadErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViewport(w http.ResponseWriter, _ *http.Request) {
	s.writeViewport(w, nil)
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, http.StatusBadRequest, "width and height must not be negative")
		return
	}
	err := s.grid.Resize(r.Context(), req.Width, req.Height)
	s.logSyncError("resize", err)
	s.writeViewport(w, err)
}

type scrollRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := s.grid.Scroll(r.Context(), req.DX, req.DY)
	s.logSyncError("scroll", err)
	s.writeViewport(w, err)
}

type zoomRequest struct {
	Factor float64 `json:"factor"`
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Factor <= 0 {
		writeError(w, http.StatusBadRequest, "factor must be positive")
		return
	}
	err := s.grid.Zoom(r.Context(), req.Factor)
	s.logSyncError("zoom", err)
	s.writeViewport(w, err)
}

type scrollToRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

func (s *Server) handleScrollTo(w http.ResponseWriter, r *http.Request) {
	var req scrollToRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := time.ParseInLocation(time.DateOnly, req.Date, s.cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	err = s.grid.ScrollToDate(r.Context(), d)
	s.logSyncError("scroll-to", err)
	s.writeViewport(w, err)
}

func (s *Server) logSyncError(op string, err error) {
	if err != nil {
		appLog.Error("api: grid sync failed", err, "op", op)
	}
}

// chipDTO is a JSON-friendly view of a chip.
type chipDTO struct {
	EventID            int64       `json:"event_id"`
	Title              string      `json:"title"`
	Location           string      `json:"location,omitempty"`
	Start              time.Time   `json:"start"`
	End                time.Time   `json:"end"`
	AllDay             bool        `json:"all_day"`
	StartsOnEarlierDay bool        `json:"starts_on_earlier_day"`
	EndsOnLaterDay     bool        `json:"ends_on_later_day"`
	Style              model.Style `json:"style"`
	Bounds             *chips.Rect `json:"bounds,omitempty"`
}

func toChipDTO(c *chips.Chip) chipDTO {
	dto := chipDTO{
		EventID:            c.EventID,
		Title:              c.Event.Title,
		Location:           c.Event.Location,
		Start:              c.Event.Start,
		End:                c.Event.End,
		AllDay:             c.AllDay(),
		StartsOnEarlierDay: c.StartsOnEarlierDay(),
		EndsOnLaterDay:     c.EndsOnLaterDay(),
		Style:              c.Event.Style,
	}
	if r, ok := c.Bounds(); ok {
		dto.Bounds = &r
	}
	return dto
}

type chipsResponse struct {
	Dates []viewport.DateOffset `json:"dates"`
	Chips []chipDTO             `json:"chips"`
}

func (s *Server) handleChips(w http.ResponseWriter, _ *http.Request) {
	visible := s.grid.VisibleChips()
	resp := chipsResponse{
		Dates: s.grid.DateRange(),
		Chips: make([]chipDTO, 0, len(visible)),
	}
	for _, c := range visible {
		resp.Chips = append(resp.Chips, toChipDTO(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// hitResponse is the JSON shape of /api/hit. Kind is "chip", "time" or
// "none".
type hitResponse struct {
	Kind  string     `json:"kind"`
	Chip  *chipDTO   `json:"chip,omitempty"`
	Time  *time.Time `json:"time,omitempty"`
	Event *eventDTO  `json:"event,omitempty"`
}

func (s *Server) toHitResponse(res grid.ClickResult) hitResponse {
	switch {
	case res.Chip != nil:
		dto := toChipDTO(res.Chip)
		out := hitResponse{Kind: "chip", Chip: &dto}
		if ev, ok := s.grid.Event(res.Chip.EventID); ok {
			e := toEventDTO(ev)
			out.Event = &e
		}
		return out
	case res.Time != nil:
		return hitResponse{Kind: "time", Time: res.Time}
	default:
		return hitResponse{Kind: "none"}
	}
}

// handleHit resolves a tap.
//
// GET /api/hit?x=120&y=300&long=1
func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}

	var res grid.ClickResult
	if parseIntDefault(q.Get("long"), 0) == 1 {
		res = s.grid.HandleLongClick(x, y)
	} else {
		res = s.grid.HandleClick(x, y)
	}
	writeJSON(w, http.StatusOK, s.toHitResponse(res))
}

// eventDTO is the full cached event behind a chip.
type eventDTO struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Location string      `json:"location,omitempty"`
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	AllDay   bool        `json:"all_day"`
	Minutes  int         `json:"duration_minutes"`
	Style    model.Style `json:"style"`
	Payload  any         `json:"payload,omitempty"`
}

func toEventDTO(ev model.Event) eventDTO {
	return eventDTO{
		ID:       ev.ID,
		Title:    ev.Title,
		Location: ev.Location,
		Start:    ev.Start,
		End:      ev.End,
		AllDay:   ev.AllDay,
		Minutes:  ev.DurationMinutes(),
		Style:    ev.Style,
		Payload:  ev.Payload,
	}
}

// handleEvents lists the events overlapping the visible dates, each once
// regardless of how many chips it was split into.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	visible := s.grid.VisibleEvents()
	out := make([]eventDTO, 0, len(visible))
	for _, ev := range visible {
		out = append(out, toEventDTO(ev))
	}
	writeJSON(w, http.StatusOK, map[string][]eventDTO{"events": out})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	ev, ok := s.grid.Event(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(ev))
}

func (s *Server) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	periods := s.grid.Periods()
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"periods": out})
}

func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]grid.Node{"nodes": s.grid.Nodes()})
}

func (s *Server) handleActivateNode(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}
	res, ok := s.grid.ActivateNode(id)
	if !ok {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSON(w, http.StatusOK, s.toHitResponse(res))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	err := s.refresh(r.Context())
	s.logSyncError("refresh", err)
	appLog.Info("api refresh completed", "elapsed", time.Since(start).String(), "periods", len(s.grid.Periods()))
	s.writeViewport(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
