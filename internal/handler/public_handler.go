package handler

import (
	"github.com/gin-gonic/gin"

	"inkpost/internal/pkg/response"
	"inkpost/internal/service"
)

type PublicHandler struct {
	public *service.PublicService
}

func NewPublicHandler(public *service.PublicService) *PublicHandler {
	return &PublicHandler{public: public}
}

func (h *PublicHandler) List(c *gin.Context) {
	blogs, err := h.public.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, blogs)
}

func (h *PublicHandler) Get(c *gin.Context) {
	blog, err := h.public.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, blog)
}
