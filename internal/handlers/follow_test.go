package handlers

import (
	"net/http"

	"github.com/yatube/backend/internal/models"
)

func (s *HandlersTestSuite) countFollows() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Follow{}).Count(&n).Error)
	return n
}

func (s *HandlersTestSuite) TestFollowIsIdempotent() {
	w := s.get("/profile/auth/follow/", s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/profile/auth/", w.Header().Get("Location"))
	s.Equal(int64(1), s.countFollows())

	w = s.get("/profile/auth/follow/", s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(int64(1), s.countFollows())

	following, err := s.users.IsFollowing(s.ctx, s.reader.ID, s.author.ID)
	s.Require().NoError(err)
	s.True(following)
}

func (s *HandlersTestSuite) TestCannotFollowYourself() {
	w := s.get("/profile/auth/follow/", s.author)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/profile/auth/", w.Header().Get("Location"))
	s.Zero(s.countFollows())
}

func (s *HandlersTestSuite) TestFollowUnknownAuthorIs404() {
	s.Equal(http.StatusNotFound, s.get("/profile/nobody/follow/", s.reader).Code)
	s.Zero(s.countFollows())
}

func (s *HandlersTestSuite) TestUnfollow() {
	_, err := s.users.CreateFollow(s.ctx, s.reader.ID, s.author.ID)
	s.Require().NoError(err)

	w := s.get("/profile/auth/unfollow/", s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/profile/auth/", w.Header().Get("Location"))
	s.Zero(s.countFollows())

	// nothing left to remove, still a redirect
	s.Equal(http.StatusFound, s.get("/profile/auth/unfollow/", s.reader).Code)
	w = s.get("/profile/nobody/unfollow/", s.reader)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/profile/nobody/", w.Header().Get("Location"))
}

func (s *HandlersTestSuite) TestFollowFeedShowsOnlyFollowedAuthors() {
	stranger := s.createUser("stranger")

	s.get("/profile/auth/follow/", s.reader)
	s.createPost(s.author, nil, "Hello")

	s.Contains(s.get("/follow/", s.reader).Body.String(), "Hello")
	s.NotContains(s.get("/follow/", stranger).Body.String(), "Hello")

	s.get("/profile/auth/unfollow/", s.reader)
	s.NotContains(s.get("/follow/", s.reader).Body.String(), "Hello")
}

func (s *HandlersTestSuite) TestProfileFollowingFlag() {
	body := s.get("/profile/auth/", s.reader).Body.String()
	s.Contains(body, `href="/profile/auth/follow/"`)

	s.get("/profile/auth/follow/", s.reader)

	body = s.get("/profile/auth/", s.reader).Body.String()
	s.Contains(body, `href="/profile/auth/unfollow/"`)
	s.Contains(body, "Followers: 1")

	// no toggle on your own profile or for guests
	s.NotContains(s.get("/profile/auth/", s.author).Body.String(), "/profile/auth/follow/")
	s.NotContains(s.get("/profile/auth/", nil).Body.String(), "/profile/auth/follow/")
}
