// Package web serves the live chart page, its JSON and SVG renderings,
// a websocket stream of updates, and the control API.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/gpio-scope/internal/chart"
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/logging"
	"github.com/sweeney/gpio-scope/internal/session"
	"github.com/sweeney/gpio-scope/internal/status"
)

// Controller drives the sampling session. *session.Loop implements it.
type Controller interface {
	Select(ctx context.Context, pin gpio.Pin) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Pins() session.PinSet
}

// Options controls the page.
type Options struct {
	// Bare hides the pin and start/stop buttons.
	Bare bool
	// AllowedOrigins for cross-origin API calls; nil allows any origin.
	AllowedOrigins []string
}

// Server serves the chart over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	ctrl       Controller
	frames     *FrameSink
	opts       Options
	log        zerolog.Logger
}

// New creates a Server. The tracker and frames must be registered as
// sinks of the loop behind ctrl.
func New(addr string, tracker *status.Tracker, ctrl Controller, frames *FrameSink, opts Options) *Server {
	s := &Server{
		tracker: tracker,
		ctrl:    ctrl,
		frames:  frames,
		opts:    opts,
		log:     log.With().Str("component", "web").Logger(),
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/chart.json", s.handleChartJSON)
	r.Get("/chart.svg", s.handleChartSVG)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			MaxAge:         300,
		}))
		api.Get("/pins", s.handlePins)
		api.Post("/select/{pin}", s.handleSelect)
		api.Post("/start", s.handleStart)
		api.Post("/stop", s.handleStop)
	})
	return r
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server. Websocket streams are
// ended by closing the frame sink.
func (s *Server) Shutdown(ctx context.Context) error {
	s.frames.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.pageData()); err != nil {
		s.log.Error().Err(err).Msg("render index")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, s.frames.Frame())
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if err := chart.WriteSVG(w, s.frames.Frame()); err != nil {
		s.log.Error().Err(err).Msg("render svg")
	}
}

type pinsResponse struct {
	Pins []string `json:"pins"`
}

func (s *Server) handlePins(w http.ResponseWriter, r *http.Request) {
	pins := s.ctrl.Pins()
	out := pinsResponse{Pins: make([]string, len(pins))}
	for i, p := range pins {
		out.Pins[i] = p.String()
	}
	writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	pin := gpio.Pin(chi.URLParam(r, "pin"))
	s.command(w, s.ctrl.Select(r.Context(), pin))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.command(w, s.ctrl.Start(r.Context()))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.command(w, s.ctrl.Stop(r.Context()))
}

// command maps a controller result to a response.
func (s *Server) command(w http.ResponseWriter, err error) {
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	code := statusFor(err)
	writeJSONResponse(w, code, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidPin):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrLoopStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		// The select device refused or could not be opened.
		return http.StatusBadGateway
	}
}
