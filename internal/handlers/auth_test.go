package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/models"
)

const testPassword = "correct-horse-battery"

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func (s *HandlersTestSuite) register(username string) *models.User {
	user, err := s.auth.Register(s.ctx, auth.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	s.Require().NoError(err)
	return user
}

func (s *HandlersTestSuite) TestSignupCreatesUser() {
	w := s.postForm("/auth/signup/", url.Values{
		"first_name": {"Lev"},
		"last_name":  {"Tolstoy"},
		"username":   {"newbie"},
		"email":      {"newbie@example.com"},
		"password1":  {testPassword},
		"password2":  {testPassword},
	}, nil)

	s.Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))

	user, err := s.users.GetUserByUsername(s.ctx, "newbie")
	s.Require().NoError(err)
	s.Equal("Lev", user.FirstName)
	s.NotEqual(testPassword, user.PasswordHash)
}

func (s *HandlersTestSuite) TestSignupValidation() {
	cases := []struct {
		name   string
		form   url.Values
		expect string
	}{
		{
			name:   "duplicate username",
			form:   url.Values{"username": {"auth"}, "email": {"fresh@example.com"}, "password1": {testPassword}, "password2": {testPassword}},
			expect: msgUsernameTaken,
		},
		{
			name:   "duplicate email",
			form:   url.Values{"username": {"fresh"}, "email": {"auth@example.com"}, "password1": {testPassword}, "password2": {testPassword}},
			expect: msgEmailTaken,
		},
		{
			name:   "bad username",
			form:   url.Values{"username": {"bad name!"}, "email": {"fresh@example.com"}, "password1": {testPassword}, "password2": {testPassword}},
			expect: "Enter a valid username.",
		},
		{
			name:   "short password",
			form:   url.Values{"username": {"fresh"}, "email": {"fresh@example.com"}, "password1": {"abc"}, "password2": {"abc"}},
			expect: "This password is too short.",
		},
		{
			name:   "missing email",
			form:   url.Values{"username": {"fresh"}, "password1": {testPassword}, "password2": {testPassword}},
			expect: msgRequired,
		},
	}

	for _, tc := range cases {
		w := s.postForm("/auth/signup/", tc.form, nil)
		s.Equal(http.StatusOK, w.Code, tc.name)
		s.Contains(w.Body.String(), tc.expect, tc.name)
	}

	_, err := s.users.GetUserByUsername(s.ctx, "fresh")
	s.Error(err)
}

func (s *HandlersTestSuite) TestLoginFollowsNext() {
	s.register("writer")

	w := s.postForm("/auth/login/", url.Values{
		"username": {"writer"},
		"password": {testPassword},
		"next":     {"/create/"},
	}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/create/", w.Header().Get("Location"))

	cookie := sessionCookie(w)
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "New post")
}

func (s *HandlersTestSuite) TestLoginIgnoresOffsiteNext() {
	s.register("writer")

	for _, next := range []string{"https://evil.example/", "//evil.example/", ""} {
		w := s.postForm("/auth/login/", url.Values{
			"username": {"writer"},
			"password": {testPassword},
			"next":     {next},
		}, nil)
		s.Equal(http.StatusFound, w.Code, next)
		s.Equal("/", w.Header().Get("Location"), next)
	}
}

func (s *HandlersTestSuite) TestLoginRejectsBadCredentials() {
	s.register("writer")

	w := s.postForm("/auth/login/", url.Values{"username": {"writer"}, "password": {"wrong-password"}}, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Please enter a correct username and password.")
	s.Nil(sessionCookie(w))
}

func (s *HandlersTestSuite) TestLoginFormCarriesNext() {
	w := s.get("/auth/login/?next=/follow/", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `name="next" value="/follow/"`)
}

func (s *HandlersTestSuite) TestLogoutClearsSession() {
	w := s.postForm("/auth/logout/", nil, s.reader)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "You have been logged out")
	s.Contains(w.Body.String(), `href="/auth/login/"`)

	cookie := sessionCookie(w)
	s.Require().NotNil(cookie)
	s.Empty(cookie.Value)
	s.Less(cookie.MaxAge, 0)
}

func (s *HandlersTestSuite) TestPasswordChangeRequiresOldPassword() {
	user := s.register("writer")

	w := s.postForm("/auth/password_change/", url.Values{
		"old_password":  {"not-my-password"},
		"new_password1": {"brand-new-secret-42"},
		"new_password2": {"brand-new-secret-42"},
	}, user)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Your old password was entered incorrectly.")

	w = s.postForm("/auth/password_change/", url.Values{
		"old_password":  {testPassword},
		"new_password1": {"brand-new-secret-42"},
		"new_password2": {"brand-new-secret-42"},
	}, user)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/auth/password_change/done/", w.Header().Get("Location"))

	_, err := s.auth.Authenticate(s.ctx, "writer", "brand-new-secret-42")
	s.NoError(err)

	// the browser that changed the password gets a fresh session, older ones end
	cookie := sessionCookie(w)
	s.Require().NotNil(cookie)
	got, err := s.auth.ValidateSession(s.ctx, cookie.Value)
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)

	stale := s.get("/create/", user)
	s.Equal(http.StatusFound, stale.Code)
	s.Contains(stale.Header().Get("Location"), "/auth/login/")
}

func (s *HandlersTestSuite) TestPasswordResetFlow() {
	s.register("writer")

	w := s.postForm("/auth/password_reset/", url.Values{"email": {"writer@example.com"}}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/auth/password_reset/done/", w.Header().Get("Location"))

	outbox := s.mailer.Outbox()
	s.Require().Len(outbox, 1)
	s.Equal("writer@example.com", outbox[0].To)

	var reset models.PasswordReset
	s.Require().NoError(s.db.First(&reset).Error)
	link := "/auth/reset/" + reset.Token + "/"
	s.Contains(outbox[0].Text, "http://testserver"+link)

	form := s.get(link, nil)
	s.Equal(http.StatusOK, form.Code)
	s.Contains(form.Body.String(), "Set a new password")

	w = s.postForm(link, url.Values{
		"new_password1": {"brand-new-secret-42"},
		"new_password2": {"brand-new-secret-42"},
	}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/auth/reset/done/", w.Header().Get("Location"))

	_, err := s.auth.Authenticate(s.ctx, "writer", "brand-new-secret-42")
	s.NoError(err)

	// single use
	again := s.get(link, nil)
	s.Contains(again.Body.String(), "Invalid link")
}

func (s *HandlersTestSuite) TestPasswordResetUnknownEmailLooksTheSame() {
	w := s.postForm("/auth/password_reset/", url.Values{"email": {"ghost@example.com"}}, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/auth/password_reset/done/", w.Header().Get("Location"))
	s.Empty(s.mailer.Outbox())
}

func (s *HandlersTestSuite) TestPasswordResetBadToken() {
	w := s.get("/auth/reset/not-a-token/", nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(strings.Contains(w.Body.String(), "Invalid link"))
}
