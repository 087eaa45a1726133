package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"inkpost/internal/pkg/response"
	"inkpost/internal/service"
)

type OTPHandler struct {
	otp *service.OTPService
}

func NewOTPHandler(otp *service.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *OTPHandler) Send(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid email")
		return
	}
	if err := h.otp.RequestCode(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *OTPHandler) Verify(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) || len(req.OTP) != 6 {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := h.otp.VerifyCode(c.Request.Context(), req.Email, req.OTP); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
