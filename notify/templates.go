package notify

import (
	"bytes"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
)

// Template names, relative to the template filesystem
const (
	TemplateWelcome = "welcome"
	TemplateReset   = "reset"
)

// Subjects of the credential notices
const (
	SubjectWelcome = "Welcome to EMS - Your Login Credentials"
	SubjectReset   = "Security Alert: Login Credentials Reset"
)

// DefaultLoginURL is linked from every notice
const DefaultLoginURL = "https://main.d15ztt0s52f8f4.amplifyapp.com/"

// Renderer renders notice bodies from django templates
type Renderer struct {
	engine   *django.Engine
	loginURL string
}

// NewRenderer loads the templates in fsys. A nil fsys uses the embedded
// templates.
func NewRenderer(fsys fs.FS, loginURL string) (*Renderer, error) {
	if fsys == nil {
		fsys = auth.GetTemplatesFS()
	}
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}

	engine := django.NewFileSystem(http.FS(fsys), ".django")
	engine.SetAutoEscape(false)
	if err := engine.Load(); err != nil {
		return nil, oops.Code("TEMPLATE_LOAD_FAILED").Wrapf(err, "failed to load notification templates")
	}

	return &Renderer{engine: engine, loginURL: loginURL}, nil
}

// Render executes the named template for notice
func (r *Renderer) Render(name string, notice auth.CredentialNotice) (string, error) {
	var buf bytes.Buffer
	err := r.engine.Render(&buf, name, map[string]any{
		"name":      notice.Name,
		"username":  notice.Username,
		"password":  notice.Password,
		"email":     notice.Email,
		"login_url": r.loginURL,
	})
	if err != nil {
		return "", oops.Code("TEMPLATE_RENDER_FAILED").
			With("template", name).
			Wrapf(err, "failed to render notification")
	}
	return buf.String(), nil
}
