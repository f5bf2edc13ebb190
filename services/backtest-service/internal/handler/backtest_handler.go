package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/imaging"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/normalizer"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/service"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/store"
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultTradePageSize = 50
	maxTradePageSize     = 500
	defaultMaxBodyBytes  = 50 << 20
)

// BacktestHandler handles backtest-related HTTP requests
type BacktestHandler struct {
	backtestService *service.BacktestService
	maxBodyBytes    int64
	logger          *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(backtestService *service.BacktestService, maxBodyBytes int64, logger *zap.Logger) *BacktestHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &BacktestHandler{
		backtestService: backtestService,
		maxBodyBytes:    maxBodyBytes,
		logger:          logger,
	}
}

// RegisterRoutes mounts the backtest routes on rg
func (h *BacktestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	backtests := rg.Group("/backtests/:id")
	{
		backtests.GET("", h.GetBacktest)
		backtests.PUT("", h.ReplaceBacktest)
		backtests.POST("", h.ReplaceBacktest)
		backtests.GET("/download", h.DownloadBacktest)
		backtests.GET("/analysis", h.GetAnalysis)
		backtests.GET("/series", h.GetSeries)
		backtests.GET("/trades", h.ListTrades)
		backtests.GET("/trades/:n", h.GetTrade)
		backtests.GET("/trades/:n/images/:img", h.GetTradeImage)
	}
}

// GetBacktest returns the canonical form of a backtest
// GET /api/v1/backtests/:id
func (h *BacktestHandler) GetBacktest(c *gin.Context) {
	b, err := h.backtestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// ReplaceBacktest validates and stores a backtest document
// PUT /api/v1/backtests/:id
// POST /api/v1/backtests/:id
func (h *BacktestHandler) ReplaceBacktest(c *gin.Context) {
	id := c.Param("id")

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		h.logger.Error("Failed to read request body", zap.Error(err))
		utils.SendError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	recompute, _ := strconv.ParseBool(c.DefaultQuery("recompute", "false"))

	res, err := h.backtestService.Replace(c.Request.Context(), id, body, service.ReplaceOptions{Recompute: recompute})
	if err != nil {
		var formatErr *normalizer.InvalidFormatError
		if errors.As(err, &formatErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid backtest document",
				"schema":  formatErr.Schema,
				"missing": nonNil(formatErr.Missing),
				"invalid": nonNil(formatErr.Invalid),
			})
			return
		}
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// DownloadBacktest returns the stored document as an attachment
// GET /api/v1/backtests/:id/download
func (h *BacktestHandler) DownloadBacktest(c *gin.Context) {
	exp, err := h.backtestService.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exp.Filename))
	c.Header("ETag", `"`+exp.Checksum+`"`)
	c.Data(http.StatusOK, "application/json", exp.Data)
}

// GetAnalysis returns every derived view of a backtest
// GET /api/v1/backtests/:id/analysis
func (h *BacktestHandler) GetAnalysis(c *gin.Context) {
	report, err := h.backtestService.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSeries returns a balance or equity curve
// GET /api/v1/backtests/:id/series?type=balance|equity
func (h *BacktestHandler) GetSeries(c *gin.Context) {
	kind := service.SeriesKind(strings.ToLower(c.DefaultQuery("type", string(service.SeriesBalance))))

	points, err := h.backtestService.Series(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":   kind,
		"points": points,
	})
}

// ListTrades returns a filtered, sorted page of trades
// GET /api/v1/backtests/:id/trades
func (h *BacktestHandler) ListTrades(c *gin.Context) {
	result := model.Outcome(strings.ToUpper(c.Query("result")))
	if result != "" && !result.Known() {
		utils.SendError(c, http.StatusBadRequest, "result must be TP or SL")
		return
	}

	side := model.Side(strings.ToUpper(c.Query("order")))
	if side != "" && side != model.SideBuy && side != model.SideSell {
		utils.SendError(c, http.StatusBadRequest, "order must be BUY or SELL")
		return
	}

	page := utils.ParsePage(c, defaultTradePageSize, maxTradePageSize)
	q := service.TradeQuery{
		Result:    result,
		Side:      side,
		From:      c.Query("from"),
		To:        c.Query("to"),
		Search:    c.Query("q"),
		Sort:      c.Query("sort"),
		Direction: c.Query("direction"),
		Page:      page,
	}

	trades, err := h.backtestService.ListTrades(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SendPage(c, http.StatusOK, trades.Items, trades.Total, page)
}

// GetTrade returns a single trade
// GET /api/v1/backtests/:id/trades/:n
func (h *BacktestHandler) GetTrade(c *gin.Context) {
	n, ok := positiveParam(c, "n")
	if !ok {
		return
	}

	trade, err := h.backtestService.GetTrade(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// GetTradeImage returns an image attached to a trade, optionally as a thumbnail
// GET /api/v1/backtests/:id/trades/:n/images/:img?size=
func (h *BacktestHandler) GetTradeImage(c *gin.Context) {
	n, ok := positiveParam(c, "n")
	if !ok {
		return
	}
	img, ok := positiveParam(c, "img")
	if !ok {
		return
	}

	image, err := h.backtestService.TradeImage(c.Request.Context(), c.Param("id"), n, img, c.Query("size"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, image.ContentType, image.Data)
}

func positiveParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 1 {
		utils.SendError(c, http.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return v, true
}

// respondError maps service errors to HTTP responses
func (h *BacktestHandler) respondError(c *gin.Context, err error) {
	var formatErr *normalizer.InvalidFormatError

	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.SendError(c, http.StatusNotFound, "Backtest not found")
	case errors.Is(err, store.ErrInvalidID):
		utils.SendError(c, http.StatusBadRequest, "Invalid backtest id")
	case errors.Is(err, service.ErrTradeNotFound):
		utils.SendError(c, http.StatusNotFound, "Trade not found")
	case errors.Is(err, service.ErrImageNotFound):
		utils.SendError(c, http.StatusNotFound, "Image not found")
	case errors.Is(err, service.ErrUnknownSeries),
		errors.Is(err, service.ErrUnknownSize),
		errors.Is(err, service.ErrInvalidQuery):
		utils.SendError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, imaging.ErrInvalidEncoding), errors.Is(err, imaging.ErrNotImage):
		utils.SendError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &formatErr):
		h.logger.Error("Stored backtest is malformed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Stored backtest is malformed",
			"missing": nonNil(formatErr.Missing),
			"invalid": nonNil(formatErr.Invalid),
		})
	default:
		h.logger.Error("Request failed", zap.String("id", c.Param("id")), zap.Error(err))
		_ = c.Error(err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
