package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"
	"trade_journal/internal/models"
	"trade_journal/pkg/logger"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var templateFuncs = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"fmtTimePtr": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"fmtDate": func(t time.Time) string { return t.Format("Mon 2 Jan 2006") },
	"dayURL":  dayURL,
	"runURL":  func(id int64) string { return fmt.Sprintf("/runs/%d/", id) },
	"err":     func(fields map[string]string, key string) string { return fields[key] },
}

func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"))
}

// staticFiles serves the embedded page scripts under /static/.
func staticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func dayURL(t time.Time) string {
	return fmt.Sprintf("/day/%d/%d/%d/", t.Year(), int(t.Month()), t.Day())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail renders the error page; details of internal errors stay in the log.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	msg := http.StatusText(status)
	switch status {
	case http.StatusInternalServerError:
		logger.Error("[WEB] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	case http.StatusBadRequest, http.StatusConflict:
		msg = err.Error()
	}
	c.HTML(status, "error.html", gin.H{"Status": status, "Message": msg})
}

func fieldsOf(err error) (map[string]string, bool) {
	var v *models.ValidationError
	if errors.As(err, &v) {
		return v.Fields, true
	}
	return nil, false
}
