package httpHandler

import (
	"errors"

	"articles-server/usecases"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type RegistrationForm struct {
	Username        string `form:"username" binding:"required,min=2,max=20"`
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Remember bool   `form:"remember"`
	Next     string `form:"next"`
}

type ArticleForm struct {
	Title   string `form:"title" binding:"required,max=100"`
	Content string `form:"content"`
}

// bindForm binds and validates a posted form. It returns per-field
// messages, or nil when the form is valid.
func bindForm(c *gin.Context, dst interface{}) map[string]string {
	err := c.ShouldBind(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"form": "Invalid form submission."}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := usecases.FieldName(fe)
		if _, exists := out[name]; !exists {
			out[name] = usecases.FieldMessage(fe)
		}
	}
	return out
}
