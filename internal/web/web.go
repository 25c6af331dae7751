// Package web holds the HTML templates and the gin renderer that serves them.
// Each page is parsed together with the shared layout and partials into its
// own template set, so pages can redefine the same blocks without clashing.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/yatube/backend/internal/models"
)

//go:embed templates
var templateFS embed.FS

// layoutName is the entry template every page renders through
const layoutName = "base"

// Page template names
const (
	PageIndex       = "posts/index.html"
	PageGroupList   = "posts/group_list.html"
	PageProfile     = "posts/profile.html"
	PagePostDetail  = "posts/post_detail.html"
	PageCreatePost  = "posts/create_post.html"
	PageFollowIndex = "posts/follow.html"

	PageNotFound    = "core/404.html"
	PageForbidden   = "core/403.html"
	PageServerError = "core/500.html"

	PageSignup               = "users/signup.html"
	PageLogin                = "users/login.html"
	PageLoggedOut            = "users/logged_out.html"
	PagePasswordChange       = "users/password_change_form.html"
	PagePasswordChangeDone   = "users/password_change_done.html"
	PagePasswordReset        = "users/password_reset_form.html"
	PagePasswordResetDone    = "users/password_reset_done.html"
	PagePasswordResetConfirm = "users/password_reset_confirm.html"
	PagePasswordResetDoneAll = "users/password_reset_complete.html"

	PageAboutAuthor = "about/author.html"
	PageAboutTech   = "about/tech.html"
)

// Renderer implements gin's render.HTMLRender over the embedded templates
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer parses every page. mediaURL turns a stored image name into a
// public URL and is exposed to templates as the mediaURL function.
func NewRenderer(mediaURL func(string) string) (*Renderer, error) {
	funcs := Funcs(mediaURL)

	shared, err := sharedFiles()
	if err != nil {
		return nil, err
	}
	base, err := template.New(layoutName).Funcs(funcs).ParseFS(templateFS, shared...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.TrimPrefix(p, "templates/")
		if isShared(name) {
			return nil
		}

		page, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := page.ParseFS(templateFS, p); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = page
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance returns the render for a page; gin calls it from c.HTML
func (r *Renderer) Instance(name string, data any) render.Render {
	page, ok := r.pages[name]
	if !ok {
		page = r.pages[PageServerError]
	}
	return render.HTML{Template: page, Name: layoutName, Data: data}
}

// Pages lists the page names the renderer knows, sorted
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isShared(name string) bool {
	dir := path.Dir(name)
	return dir == "layout" || dir == "includes"
}

func sharedFiles() ([]string, error) {
	var files []string
	for _, dir := range []string{"templates/layout", "templates/includes"} {
		entries, err := fs.ReadDir(templateFS, dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			files = append(files, dir+"/"+e.Name())
		}
	}
	return files, nil
}

// Funcs is the template function map
func Funcs(mediaURL func(string) string) template.FuncMap {
	return template.FuncMap{
		"mediaURL":      mediaURL,
		"truncatechars": TruncateChars,
		"linebreaksbr":  LinebreaksBR,
		"date":          FormatDate,
		"fullName":      func(u *models.User) string { return u.FullName() },
		"year":          func() int { return time.Now().Year() },
	}
}

// TruncateChars shortens s to n characters, ending with an ellipsis when cut
func TruncateChars(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n < 1 {
		return ""
	}
	return string(r[:n-1]) + "…"
}

// LinebreaksBR escapes s and turns newlines into <br> tags
func LinebreaksBR(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// FormatDate renders a timestamp the way post cards show it
func FormatDate(t time.Time) string {
	return t.Format("2 January 2006")
}
