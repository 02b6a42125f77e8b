package httpapi

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var pageTemplateFiles embed.FS

const (
	layoutTemplateFile     = "templates/layout.tmpl"
	paginationTemplateFile = "templates/pagination.tmpl"

	subscribersTemplateFile     = "templates/subscribers.tmpl"
	confirmTemplateFile         = "templates/confirm.tmpl"
	templatesListTemplateFile   = "templates/templates_list.tmpl"
	templateFormTemplateFile    = "templates/template_form.tmpl"
	templatePreviewTemplateFile = "templates/template_preview.tmpl"
	errorTemplateFile           = "templates/error.tmpl"
)

// parsePageTemplate builds a page from the shared layout and one content file.
func parsePageTemplate(contentFile string) *template.Template {
	return template.Must(template.ParseFS(pageTemplateFiles, layoutTemplateFile, paginationTemplateFile, contentFile))
}
