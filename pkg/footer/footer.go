package footer

import (
	"bytes"
	"html/template"
)

// Link describes an entry in the footer's link row.
type Link struct {
	Label string
	URL   string
}

// Config captures the markup hooks and content of the footer.
type Config struct {
	ElementID   string
	BaseClass   string
	LinkClass   string
	PrefixText  string
	BrandLabel  string
	BrandURL    string
	VersionText string
	Links       []Link
}

var (
	footerTemplate = template.Must(template.New("footer").Option("missingkey=error").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <span>{{.PrefixText}} {{if .BrandURL}}<a class="{{.LinkClass}}" href="{{.BrandURL}}" target="_blank" rel="noopener noreferrer">{{.BrandLabel}}</a>{{else}}{{.BrandLabel}}{{end}}</span>
  {{range .Links}}<a class="{{$.LinkClass}}" href="{{.URL}}">{{.Label}}</a>
  {{end}}{{if .VersionText}}<span class="{{.BaseClass}}__version">{{.VersionText}}</span>{{end}}
</footer>`))
)

// Render returns the footer HTML for the provided configuration.
func Render(config Config) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
