package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pricehub/internal/application/usecase/broadcast"
)

var errNoSnapshot = errors.New("price data unavailable, refresh did not complete")

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Service   string `json:"service"`
}

type pricesResponse struct {
	Success      bool               `json:"success"`
	Data         []broadcast.Record `json:"data"`
	Timestamp    int64              `json:"timestamp"`
	TotalSymbols int                `json:"total_symbols"`
}

type messageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: s.deps.Now().Unix(),
		Service:   s.deps.Service,
	})
}

func (s *Server) prices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.deps.RefreshTimeout)
	defer cancel()

	snap := s.deps.Core.GetLatestSnapshot(ctx)
	if !snap.Published() {
		log.Warn().Err(errNoSnapshot).Msg("prices request failed")
		s.fail(c, http.StatusInternalServerError, errNoSnapshot)
		return
	}

	records := s.deps.Formatter.Records(snap)
	c.JSON(http.StatusOK, pricesResponse{
		Success:      true,
		Data:         records,
		Timestamp:    s.deps.Now().Unix(),
		TotalSymbols: len(records),
	})
}

func (s *Server) startUpdates(c *gin.Context) {
	msg := "periodic updates already running"
	if s.deps.Core.StartPeriodicUpdates(s.deps.RunCtx, s.deps.UpdateInterval) {
		msg = "periodic updates started"
	}
	c.JSON(http.StatusOK, messageResponse{
		Success:   true,
		Message:   msg,
		Timestamp: s.deps.Now().Unix(),
	})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	c.JSON(status, errorResponse{
		Success:   false,
		Error:     err.Error(),
		Timestamp: s.deps.Now().Unix(),
	})
}
