package httpapi

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/pagination"
)

const (
	TemplatesPagePath          = "/templates"
	NewTemplatePagePath        = "/templates/new"
	templatesPageTitle         = "Templates"
	newTemplatePageTitle       = "New template"
	templatesPerPage           = 10
	confirmTemplateDeleteTitle = "Are you sure?"
	confirmTemplateDeleteText  = "You will not be able to recover this template!"
	confirmTemplateDeleteLabel = "Yes, delete it!"
	templateCreatedTitle       = "Success"
	templateCreatedText        = "The template was successfully created!"
	templateDeletedTitle       = "Success"
	templateDeletedText        = "The template was successfully removed!"
	templateDeleteFailedTitle  = "Could not delete"
	templateDeleteFailedText   = "Could not delete the template. Try again."
	templateCreateFailedText   = "Could not create the template. Try again."
	templateInputMissingText   = "Both name and content are required."
	templateNotFoundText       = "The template could not be loaded."
	logEventRenderTemplates    = "render_templates"
	logEventCreateTemplateWeb  = "create_template_web"
	logEventDeleteTemplateWeb  = "delete_template_web"
)

// TemplateService is the template resource. apiclient.TemplateClient satisfies it.
type TemplateService interface {
	All(ctx context.Context, pageRequest model.PageRequest) (model.TemplatePage, error)
	Get(ctx context.Context, templateID string) (model.Template, error)
	Delete(ctx context.Context, templateID string) error
	Create(ctx context.Context, input model.TemplateInput) (model.Template, error)
}

type TemplatePageHandlers struct {
	templates TemplateService
	sanitizer *bluemonday.Policy
	flashes   *FlashMessages
	renderer  *pageRenderer
	logger    *zap.Logger
}

type templateRowView struct {
	model.Template
	PreviewURL string
	DeleteURL  string
}

type templatesPageData struct {
	layoutData
	Templates  []templateRowView
	Pagination paginationView
}

type templateFormData struct {
	layoutData
	Input     model.TemplateInput
	ErrorText string
}

type templatePreviewData struct {
	layoutData
	Template    model.Template
	PreviewHTML template.HTML
	DeleteURL   string
}

func NewTemplatePageHandlers(templates TemplateService, flashes *FlashMessages, footerHTML template.HTML, logger *zap.Logger) *TemplatePageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplatePageHandlers{
		templates: templates,
		sanitizer: newPreviewPolicy(),
		flashes:   flashes,
		renderer: newPageRenderer(flashes, footerHTML, logger,
			templatesListTemplateFile,
			templateFormTemplateFile,
			templatePreviewTemplateFile,
			confirmTemplateFile,
		),
		logger: logger,
	}
}

// newPreviewPolicy allows the markup of a typical email body while dropping
// scripts and event handlers.
func newPreviewPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowStyling()
	policy.AllowAttrs("align", "bgcolor", "width", "height", "cellpadding", "cellspacing", "border").OnElements("table", "td", "th", "tr", "img")
	return policy
}

// SanitizePreview returns content safe to embed in the preview page.
func (handlers *TemplatePageHandlers) SanitizePreview(content string) template.HTML {
	return template.HTML(handlers.sanitizer.Sanitize(content))
}

func templatePreviewPath(templateID string) string {
	return TemplatesPagePath + "/" + url.PathEscape(templateID)
}

func templateDeletePath(templateID string) string {
	return templatePreviewPath(templateID) + "/delete"
}

func (handlers *TemplatePageHandlers) RenderTemplates(context *gin.Context) {
	page := requestedPage(context)
	templatesPage, listErr := handlers.templates.All(context.Request.Context(), model.PageRequest{Paginate: true, PerPage: templatesPerPage, Page: page})
	if listErr != nil {
		handlers.logger.Warn(logEventRenderTemplates, zap.Error(listErr))
		handlers.renderer.renderError(context, http.StatusBadGateway, errorTextUpstream)
		return
	}

	control := pagination.New(templatesPage.LastPage, templatesPage.CurrentPage, pagination.DefaultMaxVisible)
	state := control.Snapshot()
	if len(templatesPage.Data) == 0 && page > state.Total {
		context.Redirect(http.StatusSeeOther, newPaginationView(state, TemplatesPagePath, nil).Link(state.Total))
		return
	}

	rows := make([]templateRowView, 0, len(templatesPage.Data))
	for _, storedTemplate := range templatesPage.Data {
		rows = append(rows, templateRowView{
			Template:   storedTemplate,
			PreviewURL: templatePreviewPath(storedTemplate.ID),
			DeleteURL:  templateDeletePath(storedTemplate.ID),
		})
	}

	handlers.renderer.render(context, http.StatusOK, templatesListTemplateFile, templatesPageData{
		layoutData: handlers.renderer.layout(context, templatesPageTitle),
		Templates:  rows,
		Pagination: newPaginationView(state, TemplatesPagePath, nil),
	})
}

func (handlers *TemplatePageHandlers) RenderNewTemplate(context *gin.Context) {
	handlers.renderer.render(context, http.StatusOK, templateFormTemplateFile, templateFormData{
		layoutData: handlers.renderer.layout(context, newTemplatePageTitle),
	})
}

func (handlers *TemplatePageHandlers) CreateTemplate(context *gin.Context) {
	var input model.TemplateInput
	if bindErr := context.ShouldBind(&input); bindErr != nil {
		handlers.renderTemplateForm(context, http.StatusBadRequest, input, templateInputMissingText)
		return
	}
	input.Name = strings.TrimSpace(input.Name)

	createdTemplate, createErr := handlers.templates.Create(context.Request.Context(), input)
	if createErr != nil {
		handlers.logger.Warn(logEventCreateTemplateWeb, zap.Error(createErr))
		handlers.renderTemplateForm(context, http.StatusBadGateway, input, templateCreateFailedText)
		return
	}

	handlers.flashes.Add(context, Flash{Kind: FlashKindSuccess, Title: templateCreatedTitle, Text: templateCreatedText})
	context.Redirect(http.StatusSeeOther, templatePreviewPath(createdTemplate.ID))
}

func (handlers *TemplatePageHandlers) RenderPreview(context *gin.Context) {
	templateID := strings.TrimSpace(context.Param("id"))
	storedTemplate, getErr := handlers.templates.Get(context.Request.Context(), templateID)
	if getErr != nil {
		handlers.logger.Warn(logEventRenderTemplates, zap.String("template_id", templateID), zap.Error(getErr))
		handlers.renderer.renderError(context, http.StatusNotFound, templateNotFoundText)
		return
	}

	handlers.renderer.render(context, http.StatusOK, templatePreviewTemplateFile, templatePreviewData{
		layoutData:  handlers.renderer.layout(context, storedTemplate.Name),
		Template:    storedTemplate,
		PreviewHTML: handlers.SanitizePreview(storedTemplate.Content),
		DeleteURL:   templateDeletePath(storedTemplate.ID),
	})
}

func (handlers *TemplatePageHandlers) RenderConfirmDelete(context *gin.Context) {
	templateID := strings.TrimSpace(context.Param("id"))
	handlers.renderer.render(context, http.StatusOK, confirmTemplateFile, confirmPageData{
		layoutData:   handlers.renderer.layout(context, confirmPageTitle),
		ConfirmTitle: confirmTemplateDeleteTitle,
		ConfirmText:  confirmTemplateDeleteText,
		ConfirmLabel: confirmTemplateDeleteLabel,
		ActionURL:    templateDeletePath(templateID),
		CancelURL:    templatePreviewPath(templateID),
	})
}

func (handlers *TemplatePageHandlers) DeleteTemplate(context *gin.Context) {
	templateID := strings.TrimSpace(context.Param("id"))
	if deleteErr := handlers.templates.Delete(context.Request.Context(), templateID); deleteErr != nil {
		handlers.logger.Warn(logEventDeleteTemplateWeb, zap.String("template_id", templateID), zap.Error(deleteErr))
		handlers.flashes.Add(context, Flash{Kind: FlashKindError, Title: templateDeleteFailedTitle, Text: templateDeleteFailedText})
		context.Redirect(http.StatusSeeOther, templatePreviewPath(templateID))
		return
	}

	handlers.flashes.Add(context, Flash{Kind: FlashKindSuccess, Title: templateDeletedTitle, Text: templateDeletedText})
	context.Redirect(http.StatusSeeOther, TemplatesPagePath)
}

func (handlers *TemplatePageHandlers) renderTemplateForm(context *gin.Context, status int, input model.TemplateInput, errorText string) {
	handlers.renderer.render(context, status, templateFormTemplateFile, templateFormData{
		layoutData: handlers.renderer.layout(context, newTemplatePageTitle),
		Input:      input,
		ErrorText:  errorText,
	})
}
