package httpHandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// render fills in the values every page expects and renders name.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["identity"] = Identity(c)
	data["flashes"] = consumeFlashes(c)
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string]string{}
	}
	c.HTML(status, name, data)
}

func renderNotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "error.html", gin.H{
		"title":   "Not Found",
		"status":  http.StatusNotFound,
		"message": "The requested page could not be found.",
	})
}

func renderForbidden(c *gin.Context) {
	render(c, http.StatusForbidden, "error.html", gin.H{
		"title":   "Forbidden",
		"status":  http.StatusForbidden,
		"message": "You can only change your own articles.",
	})
}

func renderServerError(c *gin.Context) {
	render(c, http.StatusInternalServerError, "error.html", gin.H{
		"title":   "Server Error",
		"status":  http.StatusInternalServerError,
		"message": "Something went wrong. Please try again later.",
	})
}
