package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/service"
)

// AuthHandler handles login challenge and session requests
type AuthHandler struct {
	otp      *service.OTPService
	qr       *service.QRLoginService
	sessions *service.SessionManager
	profiles *service.ProfileService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(otp *service.OTPService, qr *service.QRLoginService, sessions *service.SessionManager, profiles *service.ProfileService) *AuthHandler {
	return &AuthHandler{otp: otp, qr: qr, sessions: sessions, profiles: profiles}
}

// RequestEmailCode issues a one-time code for an email address
// @Summary Request email login code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RequestEmailCodeRequest true "Email"
// @Success 200 {object} dto.ChallengeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/email/request-code [post]
func (h *AuthHandler) RequestEmailCode(c *gin.Context) {
	var req dto.RequestEmailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	response, err := h.otp.RequestCode(c.Request.Context(), domain.ChannelEmail, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// VerifyEmailCode redeems an email one-time code
// @Summary Verify email login code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyCodeRequest true "Challenge and code"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/email/verify [post]
func (h *AuthHandler) VerifyEmailCode(c *gin.Context) {
	h.verifyCode(c, domain.ChannelEmail)
}

// RequestPhoneCode issues a one-time code for a phone number
// @Summary Request phone login code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RequestPhoneCodeRequest true "Phone"
// @Success 200 {object} dto.ChallengeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/phone/request-code [post]
func (h *AuthHandler) RequestPhoneCode(c *gin.Context) {
	var req dto.RequestPhoneCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	response, err := h.otp.RequestCode(c.Request.Context(), domain.ChannelPhone, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// VerifyPhoneCode redeems a phone one-time code
// @Summary Verify phone login code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyCodeRequest true "Challenge and code"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/phone/verify [post]
func (h *AuthHandler) VerifyPhoneCode(c *gin.Context) {
	h.verifyCode(c, domain.ChannelPhone)
}

func (h *AuthHandler) verifyCode(c *gin.Context, channel string) {
	var req dto.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	response, err := h.otp.VerifyCode(c.Request.Context(), channel, req.ChallengeID, req.Code, req.ProfileHints)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// CreateQrChallenge opens a QR login challenge for the originating device
// @Summary Create QR login challenge
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.CreateQrRequest false "Display hints"
// @Success 200 {object} dto.QrChallengeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/wechat/qrcode [post]
func (h *AuthHandler) CreateQrChallenge(c *gin.Context) {
	var req dto.CreateQrRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	response, err := h.qr.CreateChallenge(c.Request.Context(), req.DisplayName, req.Gender)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ConfirmQrChallenge confirms a QR challenge from the scanning device
// @Summary Confirm QR login challenge
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ConfirmQrRequest true "Token and wechat identity"
// @Success 200 {object} dto.QrConfirmResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/auth/wechat/confirm [post]
func (h *AuthHandler) ConfirmQrChallenge(c *gin.Context) {
	var req dto.ConfirmQrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	response, err := h.qr.Confirm(c.Request.Context(), req.Token, req.WechatID, req.ProfileHints)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// PollQrChallenge reports the QR challenge state to the originating device.
// Every resolvable state answers 200 so clients poll on status alone.
// @Summary Poll QR login challenge
// @Tags auth
// @Produce json
// @Param token query string true "Challenge token"
// @Success 200 {object} dto.QrPollResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/wechat/poll [get]
func (h *AuthHandler) PollQrChallenge(c *gin.Context) {
	response, err := h.qr.Poll(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Logout invalidates the presented bearer token
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Invalidate(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSession echoes the presented bearer token, its expiry and the bound user
// @Summary Get current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	token := c.GetString(ctxToken)
	session, err := h.sessions.Verify(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), session.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      profile.User,
	})
}
