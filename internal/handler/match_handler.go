package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/service"
)

// MatchHandler handles matching engine requests
type MatchHandler struct {
	matches *service.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches *service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// Request pairs the caller with a queued candidate or enqueues them
// @Summary Request a match
// @Tags match
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.MatchRequestBody false "Preference override"
// @Success 200 {object} dto.MatchStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/match/request [post]
func (h *MatchHandler) Request(c *gin.Context) {
	var req dto.MatchRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	response, err := h.matches.Request(c.Request.Context(), UserID(c), req.MatchPreference, req.ForceNew)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Reset clears the caller's queue entry and ends any active match
// @Summary Reset match state
// @Tags match
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.MatchStatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/match/reset [post]
func (h *MatchHandler) Reset(c *gin.Context) {
	response, err := h.matches.Reset(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Status reports the caller's pairing state
// @Summary Get match status
// @Tags match
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.MatchStatusResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/match/status [get]
func (h *MatchHandler) Status(c *gin.Context) {
	response, err := h.matches.Status(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
