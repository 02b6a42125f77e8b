package httpapi

import (
	"html/template"

	"github.com/MarkoPoloResearchLab/mailadmin/pkg/footer"
)

const (
	footerElementID  = "admin-footer"
	footerBaseClass  = "admin-footer"
	footerLinkClass  = "admin-footer__link"
	footerPrefixText = "Built by"
	footerBrandLabel = "Marco Polo Research Lab"
	footerBrandURL   = "https://mprlab.com"
)

// RenderFooterHTML renders the footer shown under every admin page.
func RenderFooterHTML(versionText string) template.HTML {
	footerHTML, renderErr := footer.Render(footer.Config{
		ElementID:   footerElementID,
		BaseClass:   footerBaseClass,
		LinkClass:   footerLinkClass,
		PrefixText:  footerPrefixText,
		BrandLabel:  footerBrandLabel,
		BrandURL:    footerBrandURL,
		VersionText: versionText,
		Links: []footer.Link{
			{Label: "Templates", URL: TemplatesPagePath},
		},
	})
	if renderErr != nil {
		return template.HTML("")
	}
	return footerHTML
}
