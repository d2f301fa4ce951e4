package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request. Code is the stable error
// kind operator UIs switch on.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError writes err with the status and kind carried by its AppError.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := apperrors.StatusOf(err)
	kind := apperrors.KindOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.String("code", string(kind)), slog.String("error", err.Error()))
	} else {
		logger.Warn("Request rejected", slog.String("code", string(kind)), slog.String("error", err.Error()))
	}
	c.JSON(status, ErrorResponse{Error: apperrors.MessageOf(err), Code: string(kind)})
}

func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error(), Code: string(apperrors.KindValidation)})
}

func respondUnauthorized(c *gin.Context) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Code: "UNAUTHORIZED"})
}

// roundNumberParam parses the :roundNumber path parameter.
func roundNumberParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("roundNumber"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "roundNumber must be a positive integer", Code: string(apperrors.KindValidation)})
		return 0, false
	}
	return n, true
}
