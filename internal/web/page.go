package web

import (
	"embed"
	"html/template"
	"strings"

	"geosismica/internal/assets"
	"geosismica/internal/render"
	"geosismica/internal/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate is the template name registered with gin.
const PageTemplate = "index.html"

// Templates parses the embedded page.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Theme carries the style constants of the branded layout.
type Theme struct {
	Primary      string
	Block        string
	Text         string
	Muted        string
	FontFamily   string
	HeaderRadius int
	BlockRadius  int
	LogoWidth    int
}

// DefaultTheme is the faculty's blue on light grey.
func DefaultTheme() Theme {
	return Theme{
		Primary:      "#0B3C5D",
		Block:        "#F4F6F8",
		Text:         "#1f2937",
		Muted:        "#334155",
		FontFamily:   "Arial, Helvetica, sans-serif",
		HeaderRadius: 14,
		BlockRadius:  12,
		LogoWidth:    110,
	}
}

// Layout holds what is fixed for the process lifetime.
type Layout struct {
	Theme         Theme
	Branding      assets.Branding
	Accept        string
	AllowedTypes  string
	MaxUploadMB   int64
	NotifyOnEmpty bool
}

type PreviewView struct {
	Src    template.URL
	Width  int
	Height int
}

// Page is the template data for one render.
type Page struct {
	Title          string
	LoadingText    string
	Theme          Theme
	UniversityLogo template.URL
	FacultyLogo    template.URL
	Accept         string
	AllowedTypes   string
	MaxUploadMB    int64

	Filename  string
	Preview   *PreviewView
	Rejection string
	Notice    *render.Notice
	Result    *render.ResultView

	ImageCaption       string
	DescriptionHeading string
	DownloadLabel      string
	ReportFilename     string
	EmptyNotice        string
}

// BuildPage assembles the page for sess. sess may be nil on a first visit.
func BuildPage(layout Layout, sess *repository.Session) Page {
	p := Page{
		Title:              "GeoSismicIA – UCE",
		LoadingText:        "Analizando línea sísmica...",
		Theme:              layout.Theme,
		UniversityLogo:     layout.Branding.University.DataURI(),
		FacultyLogo:        layout.Branding.Faculty.DataURI(),
		Accept:             layout.Accept,
		AllowedTypes:       layout.AllowedTypes,
		MaxUploadMB:        layout.MaxUploadMB,
		ImageCaption:       render.ImageCaption,
		DescriptionHeading: render.DescriptionHeading,
		DownloadLabel:      render.DownloadLabel,
		ReportFilename:     render.ReportFilename,
	}
	if sess == nil {
		return p
	}

	p.Rejection = sess.Rejection
	if sess.File != nil && sess.Preview != nil {
		p.Filename = sess.File.Filename
		p.Preview = &PreviewView{
			Src:    template.URL(sess.Preview.Src),
			Width:  sess.Preview.Width,
			Height: sess.Preview.Height,
		}
	}

	if sess.Outcome != nil {
		notice := render.NoticeFor(*sess.Outcome)
		p.Notice = &notice
		if sess.Outcome.IsSuccess() {
			view := render.RenderResult(sess.Outcome.Result)
			p.Result = &view
			if view.Empty && layout.NotifyOnEmpty {
				p.EmptyNotice = render.EmptyResultText
			}
		}
	}
	return p
}

// AllowedTypesLabel renders "PNG / JPG / JPEG".
func AllowedTypesLabel(exts []string) string {
	upper := make([]string, len(exts))
	for i, ext := range exts {
		upper[i] = strings.ToUpper(ext)
	}
	return strings.Join(upper, " / ")
}
