package api

import (
	"time"

	"AprSight/internal/domain/models"
	"AprSight/internal/service/ratelimit"
	"AprSight/internal/usecase"
	"AprSight/pkg/cache"
	xhttp "AprSight/pkg/http"
	xlogger "AprSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	rlCapacity      = 10
	rlRefillPerSec  = 5
	defaultCacheTTL = 30 * time.Second
)

// PredictionHandler serves the read-only prediction and validation API.
type PredictionHandler struct {
	queries  *usecase.QueryUseCase
	hub      *LiveHub
	cache    cache.Service
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	logger   *xlogger.Logger
}

var _ xhttp.Handler = (*PredictionHandler)(nil)

func NewPredictionHandler(queries *usecase.QueryUseCase, hub *LiveHub, cacheTTL time.Duration, logger *xlogger.Logger) *PredictionHandler {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &PredictionHandler{
		queries:  queries,
		hub:      hub,
		cacheTTL: cacheTTL,
		rl:       ratelimit.New(),
		logger:   logger,
	}
}

// SetCache enables response caching for the list endpoints.
func (h *PredictionHandler) SetCache(c cache.Service) { h.cache = c }

func (h *PredictionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/predictions", h.Predictions)
	g.GET("/validation", h.Validation)
	g.GET("/trades", h.Trades)
	g.GET("/history/:token", h.History)
	g.GET("/healthz", h.Healthz)
	if h.hub != nil {
		e.GET("/ws/live", h.hub.ServeWS)
	}
}

func (h *PredictionHandler) Predictions(c echo.Context) error {
	if !h.allow(c, "predictions") {
		return tooManyRequests(c)
	}
	req := &models.PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return badRequest(c, verr)
	}

	key := cache.GenerateKeyWithParams("predictions", req.Limit, req.Regime)
	var snaps []*models.FeatureSnapshot
	if h.cacheGet(c, key, &snaps) {
		return xhttp.DataResponse(c, snaps)
	}

	snaps, err := h.queries.Predictions(c.Request().Context(), req.Limit, req.Regime)
	if err != nil {
		h.logger.Error("predictions query error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, err)
	}
	h.cacheSet(c, key, snaps)
	return xhttp.DataResponse(c, snaps)
}

func (h *PredictionHandler) Validation(c echo.Context) error {
	if !h.allow(c, "validation") {
		return tooManyRequests(c)
	}
	req := &models.ValidationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return badRequest(c, verr)
	}

	stats, err := h.queries.Validation(c.Request().Context(), req.Days)
	if err != nil {
		h.logger.Error("validation query error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, stats)
}

func (h *PredictionHandler) Trades(c echo.Context) error {
	if !h.allow(c, "trades") {
		return tooManyRequests(c)
	}
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return badRequest(c, verr)
	}

	trades, err := h.queries.Trades(c.Request().Context(), req.Status, req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("trades query error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, trades, len(trades), req.Limit, req.Offset)
}

func (h *PredictionHandler) History(c echo.Context) error {
	if !h.allow(c, "history") {
		return tooManyRequests(c)
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return badRequest(c, verr)
	}

	key := cache.GenerateKeyWithParams("history", req.Token, req.Hours, req.Limit)
	var cached models.HistoryResult
	if h.cacheGet(c, key, &cached) {
		return xhttp.DataResponse(c, &cached)
	}

	result, err := h.queries.History(c.Request().Context(), req.Token, req.Hours, req.Limit)
	if err != nil {
		h.logger.Error("history query error",
			xlogger.String("token", req.Token),
			xlogger.Error(err))
		return xhttp.ErrorResponse(c, err)
	}
	h.cacheSet(c, key, result)
	return xhttp.DataResponse(c, result)
}

func (h *PredictionHandler) Healthz(c echo.Context) error {
	if err := h.queries.Healthz(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return c.JSON(503, map[string]string{"status": "degraded", "error": err.Error()})
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (h *PredictionHandler) allow(c echo.Context, endpoint string) bool {
	ok := h.rl.Allow(c.RealIP()+":"+endpoint, rlCapacity, rlRefillPerSec)
	if !ok {
		h.logger.Warn("rate limited",
			xlogger.String("remote", c.RealIP()),
			xlogger.String("endpoint", endpoint))
	}
	return ok
}

func (h *PredictionHandler) cacheGet(c echo.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	if err := h.cache.Get(c.Request().Context(), key, dest); err != nil {
		return false
	}
	return true
}

func (h *PredictionHandler) cacheSet(c echo.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(c.Request().Context(), key, value, h.cacheTTL); err != nil {
		h.logger.Warn("response cache set failed",
			xlogger.String("key", key),
			xlogger.Error(err))
	}
}

func badRequest(c echo.Context, verr interface{}) error {
	if errs, ok := verr.([]xhttp.ValidationError); ok {
		return xhttp.ValidationErrorResponse(c, errs)
	}
	return xhttp.BadRequestResponse(c, "invalid request")
}

func tooManyRequests(c echo.Context) error {
	return c.JSON(429, map[string]string{"error": "rate limited"})
}
