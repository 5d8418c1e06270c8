package httpHandler

import (
	"errors"
	"net/http"

	"articles-server/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth     *usecases.AuthUseCase
	sessions *Sessions
	log      *zap.Logger
}

func NewAuthHandler(auth *usecases.AuthUseCase, sessions *Sessions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, log: log}
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	render(c, http.StatusOK, "register.html", gin.H{"title": "Register", "form": RegistrationForm{}})
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var form RegistrationForm
	if errs := bindForm(c, &form); errs != nil {
		render(c, http.StatusUnprocessableEntity, "register.html", gin.H{"title": "Register", "form": form, "errors": errs})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		var verr *usecases.ValidationError
		if errors.As(err, &verr) {
			render(c, http.StatusUnprocessableEntity, "register.html", gin.H{"title": "Register", "form": form, "errors": verr.Fields})
			return
		}
		h.log.Error("register user", zap.Error(err))
		renderServerError(c)
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	addFlash(c, "success", "Your account has been created! You are now able to log in")
	c.Redirect(http.StatusFound, "/login")
}

// LoginPage handles GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{
		"title": "Login",
		"form":  LoginForm{Next: c.Query("next")},
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if errs := bindForm(c, &form); errs != nil {
		form.Password = ""
		render(c, http.StatusUnprocessableEntity, "login.html", gin.H{"title": "Login", "form": form, "errors": errs})
		return
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}

	grant, err := h.auth.Authenticate(c.Request.Context(), form.Email, form.Password, form.Remember)
	if err != nil {
		form.Password = ""
		if errors.Is(err, usecases.ErrAuthentication) {
			flashNow(c, "danger", "Login Unsuccessful. Please check email and password")
			render(c, http.StatusUnauthorized, "login.html", gin.H{"title": "Login", "form": form})
			return
		}
		h.log.Error("authenticate", zap.Error(err))
		renderServerError(c)
		return
	}

	h.sessions.set(c, grant)
	h.log.Info("user logged in", zap.String("user_id", grant.User.ID), zap.Bool("remember", grant.Remember))
	c.Redirect(http.StatusFound, usecases.SafeRedirect(form.Next, "/"))
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.EndSession(c.Request.Context(), h.sessions.token(c)); err != nil {
		h.log.Error("end session", zap.Error(err))
	}
	h.sessions.clear(c)
	c.Redirect(http.StatusFound, "/login")
}
