package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, appErr.ErrEmailNotVerified):
		response.Error(c, http.StatusForbidden, "email_not_verified", "email not verified")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case appErr.IsConflict(err):
		response.Error(c, http.StatusConflict, "conflict", "already exists")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many", "please try again later")
	case errors.Is(err, appErr.ErrAlreadyVerified):
		response.Error(c, http.StatusBadRequest, "already_verified", "email already verified")
	case errors.Is(err, appErr.ErrOTPExpired):
		response.Error(c, http.StatusBadRequest, "otp_expired", "otp expired or never sent")
	case errors.Is(err, appErr.ErrOTPMismatch):
		response.Error(c, http.StatusBadRequest, "otp_mismatch", "incorrect otp")
	case errors.Is(err, appErr.ErrInvalidCredentials):
		response.Error(c, http.StatusBadRequest, "invalid_credentials", "invalid credentials")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
