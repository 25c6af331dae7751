package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/email"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/util"
	"github.com/yatube/backend/internal/web"
	"go.uber.org/zap"
)

// Signup registers a new account and sends the visitor to the home page
// GET,POST /auth/signup/
func (h *Handlers) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, web.PageSignup, gin.H{"Form": &SignupForm{}})
		return
	}

	form := &SignupForm{}
	form.Errors = bindForm(c, form)
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	if len(form.Errors["password1"]) == 0 && len(form.Errors["password2"]) == 0 {
		for _, msg := range auth.ValidatePassword(form.Password2, form.Username, form.Email) {
			form.Errors.Add("password2", msg)
		}
	}
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PageSignup, gin.H{"Form": form})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), auth.RegisterRequest{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password1,
	})
	switch {
	case errors.Is(err, auth.ErrUsernameExists):
		form.Errors.Add("username", msgUsernameTaken)
	case errors.Is(err, auth.ErrUserExists):
		form.Errors.Add("email", msgEmailTaken)
	case err != nil:
		h.fail(c, err)
		return
	}
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PageSignup, gin.H{"Form": form})
		return
	}

	metrics.Get().SignupsTotal.Inc()
	logger.Log.Info("Signup completed", logger.WithUserID(user.ID))
	redirect(c, "/")
}

// Login checks credentials, sets the session cookie and follows ?next=
// when it points back into the site
// GET,POST /auth/login/
func (h *Handlers) Login(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		form := &LoginForm{Next: c.Query("next")}
		h.render(c, http.StatusOK, web.PageLogin, gin.H{"Form": form, "Next": form.Next})
		return
	}

	form := &LoginForm{}
	form.Errors = bindForm(c, form)
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PageLogin, gin.H{"Form": form, "Next": form.Next})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.Get().LoginsTotal.WithLabelValues("failure").Inc()
		form.Errors.Add("form", msgBadCredentials)
		h.render(c, http.StatusOK, web.PageLogin, gin.H{"Form": form, "Next": form.Next})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	session, err := h.auth.IssueSession(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	middleware.SetSessionCookie(c, session, h.secureCookies)
	metrics.Get().LoginsTotal.WithLabelValues("success").Inc()

	redirect(c, util.SafeRedirect(form.Next, "/"))
}

// Logout clears the session cookie
// GET,POST /auth/logout/
func (h *Handlers) Logout(c *gin.Context) {
	if me, ok := util.GetUserFromContext(c); ok {
		logger.Log.Debug("User logged out", logger.WithUserID(me.ID))
	}
	middleware.ClearSessionCookie(c)
	util.ClearUser(c)
	h.render(c, http.StatusOK, web.PageLoggedOut, nil)
}

// PasswordChange sets a new password after checking the old one
// GET,POST /auth/password_change/
func (h *Handlers) PasswordChange(c *gin.Context) {
	me, _ := util.GetUserFromContext(c)

	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, web.PagePasswordChange, gin.H{"Form": &PasswordChangeForm{}})
		return
	}

	form := &PasswordChangeForm{}
	form.Errors = bindForm(c, form)
	if !form.Errors.Any() {
		for _, msg := range auth.ValidatePassword(form.NewPassword1, me.Username, me.Email) {
			form.Errors.Add("new_password2", msg)
		}
	}
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PagePasswordChange, gin.H{"Form": form})
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), me, form.OldPassword, form.NewPassword1)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		form.Errors.Add("old_password", msgWrongOldPassword)
		h.render(c, http.StatusOK, web.PagePasswordChange, gin.H{"Form": form})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	// the old session no longer validates; keep this browser signed in
	session, err := h.auth.IssueSession(me)
	if err != nil {
		h.fail(c, err)
		return
	}
	middleware.SetSessionCookie(c, session, h.secureCookies)

	redirect(c, "/auth/password_change/done/")
}

// GET /auth/password_change/done/
func (h *Handlers) PasswordChangeDone(c *gin.Context) {
	h.render(c, http.StatusOK, web.PagePasswordChangeDone, nil)
}

// PasswordReset mails a one-time link to the account with the given email.
// The response is the same whether or not such an account exists.
// GET,POST /auth/password_reset/
func (h *Handlers) PasswordReset(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, web.PagePasswordReset, gin.H{"Form": &PasswordResetForm{}})
		return
	}

	form := &PasswordResetForm{}
	form.Errors = bindForm(c, form)
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PagePasswordReset, gin.H{"Form": form})
		return
	}

	ctx := c.Request.Context()
	reset, err := h.auth.RequestPasswordReset(ctx, strings.TrimSpace(form.Email))
	if err != nil {
		h.fail(c, err)
		return
	}

	if reset != nil {
		link := strings.TrimRight(h.baseURL, "/") + "/auth/reset/" + reset.Token + "/"
		msg := email.PasswordResetMessage(reset.User.Email, reset.User.Username, link)
		if err := h.mailer.Send(ctx, msg); err != nil {
			logger.Log.Error("Failed to send password reset email",
				logger.WithUserID(reset.UserID),
				zap.Error(err),
			)
		}
	}

	redirect(c, "/auth/password_reset/done/")
}

// GET /auth/password_reset/done/
func (h *Handlers) PasswordResetDone(c *gin.Context) {
	h.render(c, http.StatusOK, web.PagePasswordResetDone, nil)
}

// PasswordResetConfirm sets a new password from a mailed link. Used, expired
// and unknown tokens render the invalid link page.
// GET,POST /auth/reset/:token/
func (h *Handlers) PasswordResetConfirm(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Param("token")

	reset, err := h.auth.CheckResetToken(ctx, token)
	if errors.Is(err, auth.ErrInvalidResetToken) {
		h.render(c, http.StatusOK, web.PagePasswordResetConfirm, gin.H{"ValidLink": false})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, web.PagePasswordResetConfirm, gin.H{"ValidLink": true, "Form": &SetPasswordForm{}})
		return
	}

	form := &SetPasswordForm{}
	form.Errors = bindForm(c, form)
	if !form.Errors.Any() {
		for _, msg := range auth.ValidatePassword(form.NewPassword1, reset.User.Username, reset.User.Email) {
			form.Errors.Add("new_password2", msg)
		}
	}
	if form.Errors.Any() {
		h.render(c, http.StatusOK, web.PagePasswordResetConfirm, gin.H{"ValidLink": true, "Form": form})
		return
	}

	err = h.auth.ResetPassword(ctx, token, form.NewPassword1)
	if errors.Is(err, auth.ErrInvalidResetToken) {
		h.render(c, http.StatusOK, web.PagePasswordResetConfirm, gin.H{"ValidLink": false})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	redirect(c, "/auth/reset/done/")
}

// GET /auth/reset/done/
func (h *Handlers) PasswordResetComplete(c *gin.Context) {
	h.render(c, http.StatusOK, web.PagePasswordResetDoneAll, nil)
}
