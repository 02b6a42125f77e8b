package httpapi

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/pagination"
)

const (
	htmlContentType       = "text/html; charset=utf-8"
	layoutTemplateName    = "layout"
	logEventRenderPage    = "render_page"
	renderFailureText     = "render_failed"
	errorPageTitle        = "Something went wrong"
	errorTextUpstream     = "The mailing list API could not be reached. Try again."
	errorTextMissingInput = "The request is missing required fields."
)

type layoutData struct {
	Title      string
	Flashes    []Flash
	FooterHTML template.HTML
}

type errorPageData struct {
	layoutData
	ErrorText string
}

type pageRenderer struct {
	pages      map[string]*template.Template
	flashes    *FlashMessages
	footerHTML template.HTML
	logger     *zap.Logger
}

func newPageRenderer(flashes *FlashMessages, footerHTML template.HTML, logger *zap.Logger, contentFiles ...string) *pageRenderer {
	pages := make(map[string]*template.Template, len(contentFiles)+1)
	for _, contentFile := range append([]string{errorTemplateFile}, contentFiles...) {
		pages[contentFile] = parsePageTemplate(contentFile)
	}
	return &pageRenderer{pages: pages, flashes: flashes, footerHTML: footerHTML, logger: logger}
}

// layout pops pending flashes, so call it once per rendered response.
func (renderer *pageRenderer) layout(context *gin.Context, title string) layoutData {
	return layoutData{
		Title:      title,
		Flashes:    renderer.flashes.Pop(context),
		FooterHTML: renderer.footerHTML,
	}
}

func (renderer *pageRenderer) render(context *gin.Context, status int, contentFile string, data any) {
	var buffer bytes.Buffer
	if executeErr := renderer.pages[contentFile].ExecuteTemplate(&buffer, layoutTemplateName, data); executeErr != nil {
		renderer.logger.Error(logEventRenderPage, zap.String("page", contentFile), zap.Error(executeErr))
		context.String(http.StatusInternalServerError, renderFailureText)
		return
	}
	context.Data(status, htmlContentType, buffer.Bytes())
}

func (renderer *pageRenderer) renderError(context *gin.Context, status int, errorText string) {
	renderer.render(context, status, errorTemplateFile, errorPageData{
		layoutData: renderer.layout(context, errorPageTitle),
		ErrorText:  errorText,
	})
}

type pageLink struct {
	Number int
	URL    string
	Active bool
}

// paginationView renders a pagination control as links to basePath?page=N.
type paginationView struct {
	pagination.State
	Pages    []pageLink
	basePath string
	query    url.Values
}

func newPaginationView(state pagination.State, basePath string, query url.Values) paginationView {
	view := paginationView{State: state, basePath: basePath, query: query}
	for _, number := range state.Visible {
		view.Pages = append(view.Pages, pageLink{Number: number, URL: view.Link(number), Active: number == state.Page})
	}
	return view
}

func (view paginationView) Link(page int) string {
	query := url.Values{}
	for key, values := range view.query {
		query[key] = append([]string(nil), values...)
	}
	query.Set(model.QueryKeyPage, strconv.Itoa(page))
	return view.basePath + "?" + query.Encode()
}

// requestedPage reads ?page=N, defaulting to the first page.
func requestedPage(context *gin.Context) int {
	return model.ParsePageRequest(context.Request.URL.Query()).Page
}
