package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkpost/internal/pkg/response"
	"inkpost/internal/service"
)

type BlogHandler struct {
	blogs *service.BlogService
}

func NewBlogHandler(blogs *service.BlogService) *BlogHandler {
	return &BlogHandler{blogs: blogs}
}

type blogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// anonQuery has already passed validation; absence means false.
func anonQuery(c *gin.Context) bool {
	return c.Query("anon") == "true"
}

func (h *BlogHandler) Create(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	blog, err := h.blogs.Create(c.Request.Context(), getUserID(c), c.Param("state"), service.BlogInput{
		Title:   req.Title,
		Content: req.Content,
	}, anonQuery(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, blog)
}

func (h *BlogHandler) Update(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	err := h.blogs.Update(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("state"), service.BlogInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.blogs.Delete(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("state")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *BlogHandler) Publish(c *gin.Context) {
	if err := h.blogs.Publish(c.Request.Context(), getUserID(c), c.Param("id"), anonQuery(c)); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *BlogHandler) List(c *gin.Context) {
	blogs, err := h.blogs.List(c.Request.Context(), getUserID(c), c.Param("state"), c.Query("q"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, blogs)
}

func (h *BlogHandler) Get(c *gin.Context) {
	blog, err := h.blogs.Get(c.Request.Context(), getUserID(c), c.Param("id"), c.Param("state"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, blog)
}
