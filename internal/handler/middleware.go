package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/service"
	"github.com/duetlog/duet-service/internal/store"
)

const (
	ctxUserID = "user_id"
	ctxToken  = "token"
)

// AuthMiddleware resolves the bearer token into a user identity and aborts
// with 401/404 otherwise. Downstream handlers read the user id from the
// context.
func AuthMiddleware(sessions *service.SessionManager, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "未授权"})
			c.Abort()
			return
		}

		session, err := sessions.Verify(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		state, err := st.Snapshot(c.Request.Context())
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if state.UserByID(session.UserID) == nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "用户不存在"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, session.UserID)
		c.Set(ctxToken, token)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
