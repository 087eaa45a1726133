package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"inkpost/internal/model"
	"inkpost/internal/pkg/response"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ValidateBlogParams guards path/query well-formedness before anything
// reaches the lifecycle logic. parts may name "state", "id" and "anon".
func ValidateBlogParams(parts ...string) gin.HandlerFunc {
	checkState, checkID, checkAnon := false, false, false
	for _, part := range parts {
		switch part {
		case "state":
			checkState = true
		case "id":
			checkID = true
		case "anon":
			checkAnon = true
		}
	}
	return func(c *gin.Context) {
		if checkState && !model.IsValidBlogState(c.Param("state")) {
			response.Error(c, http.StatusBadRequest, "invalid", "invalid state")
			c.Abort()
			return
		}
		if checkID && !idPattern.MatchString(c.Param("id")) {
			response.Error(c, http.StatusBadRequest, "invalid", "invalid id")
			c.Abort()
			return
		}
		if checkAnon {
			if anon := c.Query("anon"); anon != "" && anon != "true" && anon != "false" {
				response.Error(c, http.StatusBadRequest, "invalid", "invalid anon query parameter")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
