package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/service"
)

// respondError translates service errors into the JSON error envelope.
// Unclassified errors become 500 and are logged without leaking internals.
func respondError(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Status, dto.ErrorResponse{Error: svcErr.Message})
		return
	}

	zap.L().Error("unhandled request error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "服务器错误"})
}

// respondBadRequest reports a malformed request body.
func respondBadRequest(c *gin.Context, err error) {
	zap.L().Debug("malformed request body",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "无法解析请求"})
}
