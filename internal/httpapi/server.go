package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/manuelpepe/async-uci/internal/analysis"
	"github.com/manuelpepe/async-uci/internal/obslog"
	"github.com/manuelpepe/async-uci/internal/preset"
)

const requestTimeout = 60 * time.Second

// Server exposes the analysis service over HTTP.
type Server struct {
	svc           *analysis.Service
	defaultPreset string
	log           *zap.Logger

	httpServer *fasthttp.Server
}

func NewServer(svc *analysis.Service, defaultPreset string) *Server {
	s := &Server{
		svc:           svc,
		defaultPreset: defaultPreset,
		log:           obslog.L().Named("httpapi"),
	}
	s.httpServer = &fasthttp.Server{
		Handler:      s.route,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout,
	}
	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.httpServer.Shutdown()
}

// Handler returns the request handler, tests serve it directly.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.route
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		s.handleHealth(ctx)
	case "/eval":
		s.handleEval(ctx)
	case "/options":
		s.handleOptions(ctx)
	case "/reports":
		s.handleReports(ctx)
	case "/presets":
		s.handlePresets(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEval(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fen := strings.TrimSpace(string(ctx.QueryArgs().Peek("fen")))
	if fen == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "fen query parameter is required")
		return
	}
	presetName := strings.TrimSpace(string(ctx.QueryArgs().Peek("preset")))
	if presetName == "" {
		presetName = s.defaultPreset
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	report, err := s.svc.Analyze(reqCtx, fen, presetName)
	if err != nil {
		s.log.Warn("analyze failed", zap.String("fen", fen), zap.String("preset", presetName), zap.Error(err))
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, report)
}

func (s *Server) handleReports(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fen := strings.TrimSpace(string(ctx.QueryArgs().Peek("fen")))
	if fen == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "fen query parameter is required")
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")

	reqCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	reports, err := s.svc.History(reqCtx, fen, limit)
	if err != nil {
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	if reports == nil {
		reports = []*analysis.Report{}
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string][]*analysis.Report{"reports": reports})
}

// statusFor maps service errors to HTTP statuses: caller mistakes are 400,
// a missing archive is 503, anything else is an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest):
		return fasthttp.StatusBadRequest
	case errors.Is(err, analysis.ErrArchiveDisabled):
		return fasthttp.StatusServiceUnavailable
	default:
		return fasthttp.StatusBadGateway
	}
}

type optionDTO struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Default string   `json:"default,omitempty"`
	Min     *int     `json:"min,omitempty"`
	Max     *int     `json:"max,omitempty"`
	Vars    []string `json:"vars,omitempty"`
}

func (s *Server) handleOptions(ctx *fasthttp.RequestCtx) {
	presetName := strings.TrimSpace(string(ctx.QueryArgs().Peek("preset")))
	if presetName == "" {
		presetName = s.defaultPreset
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	opts, err := s.svc.Options(reqCtx, presetName)
	if err != nil {
		writeError(ctx, statusFor(err), err.Error())
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toOptionDTOs(opts))
}

func (s *Server) handlePresets(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string][]string{"presets": preset.Names()})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "encode response")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	raw, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetBody(raw)
}
