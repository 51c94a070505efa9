package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/packlane/packlane/internal/middleware"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
	"github.com/packlane/packlane/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	switch {
	case appErr.IsNotFound(err), err == appErr.ErrCopyInProgress:
		logger.Debug("request rejected", zap.Error(err))
	case err == appErr.ErrUnauthorized, appErr.IsConflict(err):
		logger.Info("request rejected", zap.Error(err))
	default:
		logger.Error("request failed", zap.Error(err))
	}
	switch {
	case err == appErr.ErrUnauthorized:
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case appErr.IsConflict(err):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case err == appErr.ErrCopyInProgress:
		response.Error(c, http.StatusConflict, "copy_in_progress", "a copy of this list is already in progress")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
