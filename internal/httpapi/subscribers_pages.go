package httpapi

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/subscribers"
)

const (
	SubscribersPagePathFormat   = "/lists/%s/subscribers"
	subscribersPageTitle        = "Subscribers"
	confirmPageTitle            = "Confirm delete"
	formFieldList               = "list"
	formFieldPage               = "page"
	logEventRenderSubscribers   = "render_subscribers"
	logEventDeleteSubscriberWeb = "delete_subscriber_web"
)

// SubscriberPageHandlers serves the subscriber table of a mailing list.
// Every request mounts a fresh subscribers.Table against the API.
type SubscriberPageHandlers struct {
	source   subscribers.Source
	flashes  *FlashMessages
	renderer *pageRenderer
	logger   *zap.Logger
}

type subscriberRowView struct {
	subscribers.Row
	DeleteURL string
}

type subscribersPageData struct {
	layoutData
	ListID     string
	Rows       []subscriberRowView
	Pagination paginationView
}

type hiddenField struct {
	Name  string
	Value string
}

type confirmPageData struct {
	layoutData
	ConfirmTitle string
	ConfirmText  string
	ConfirmLabel string
	ActionURL    string
	CancelURL    string
	Hidden       []hiddenField
}

func NewSubscriberPageHandlers(source subscribers.Source, flashes *FlashMessages, footerHTML template.HTML, logger *zap.Logger) *SubscriberPageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriberPageHandlers{
		source:   source,
		flashes:  flashes,
		renderer: newPageRenderer(flashes, footerHTML, logger, subscribersTemplateFile, confirmTemplateFile),
		logger:   logger,
	}
}

func SubscribersPagePath(listID string) string {
	return fmt.Sprintf(SubscribersPagePathFormat, url.PathEscape(listID))
}

func subscribersPageURL(listID string, page int) string {
	return SubscribersPagePath(listID) + "?" + url.Values{formFieldPage: {strconv.Itoa(page)}}.Encode()
}

func subscriberDeletePath(subscriberID string) string {
	return "/subscribers/" + url.PathEscape(subscriberID) + "/delete"
}

func (handlers *SubscriberPageHandlers) RenderSubscribers(context *gin.Context) {
	listID := strings.TrimSpace(context.Param("id"))
	page := requestedPage(context)

	table, tableErr := subscribers.New(handlers.source, nil, nil, nil, subscribers.Config{ListID: listID, Logger: handlers.logger})
	if tableErr != nil {
		handlers.renderer.renderError(context, http.StatusBadRequest, errorTextMissingInput)
		return
	}
	if mountErr := table.MountAt(context.Request.Context(), page); mountErr != nil {
		handlers.logger.Warn(logEventRenderSubscribers, zap.String("list_id", listID), zap.Error(mountErr))
		handlers.renderer.renderError(context, http.StatusBadGateway, errorTextUpstream)
		return
	}

	state := table.Pagination().Snapshot()
	if len(table.Rows()) == 0 && page > state.Total {
		// Deleting the last row of the last page lands past the end.
		context.Redirect(http.StatusSeeOther, subscribersPageURL(listID, state.Total))
		return
	}

	rows := make([]subscriberRowView, 0)
	for _, row := range table.Rows() {
		deleteQuery := url.Values{formFieldList: {listID}, formFieldPage: {strconv.Itoa(state.Page)}}
		rows = append(rows, subscriberRowView{Row: row, DeleteURL: subscriberDeletePath(row.ID) + "?" + deleteQuery.Encode()})
	}

	handlers.renderer.render(context, http.StatusOK, subscribersTemplateFile, subscribersPageData{
		layoutData: handlers.renderer.layout(context, subscribersPageTitle),
		ListID:     listID,
		Rows:       rows,
		Pagination: newPaginationView(state, SubscribersPagePath(listID), nil),
	})
}

func (handlers *SubscriberPageHandlers) RenderConfirmDelete(context *gin.Context) {
	subscriberID := strings.TrimSpace(context.Param("id"))
	listID := strings.TrimSpace(context.Query(formFieldList))
	if subscriberID == "" || listID == "" {
		handlers.renderer.renderError(context, http.StatusBadRequest, errorTextMissingInput)
		return
	}
	page := requestedPage(context)

	handlers.renderer.render(context, http.StatusOK, confirmTemplateFile, confirmPageData{
		layoutData:   handlers.renderer.layout(context, confirmPageTitle),
		ConfirmTitle: subscribers.ConfirmDeleteTitle,
		ConfirmText:  subscribers.ConfirmDeleteText,
		ConfirmLabel: subscribers.ConfirmDeleteButtonLabel,
		ActionURL:    subscriberDeletePath(subscriberID),
		CancelURL:    subscribersPageURL(listID, page),
		Hidden: []hiddenField{
			{Name: formFieldList, Value: listID},
			{Name: formFieldPage, Value: strconv.Itoa(page)},
		},
	})
}

// DeleteSubscriber runs the table's delete flow. Submitting the confirmation
// form is the affirmative answer; the reload is a redirect to the list page.
func (handlers *SubscriberPageHandlers) DeleteSubscriber(context *gin.Context) {
	subscriberID := strings.TrimSpace(context.Param("id"))
	listID := strings.TrimSpace(context.PostForm(formFieldList))
	if subscriberID == "" || listID == "" {
		handlers.renderer.renderError(context, http.StatusBadRequest, errorTextMissingInput)
		return
	}
	page, pageErr := strconv.Atoi(context.PostForm(formFieldPage))
	if pageErr != nil || page < 1 {
		page = 1
	}
	listPageURL := subscribersPageURL(listID, page)

	reloader := redirectReloader{context: context, target: listPageURL}
	table, tableErr := subscribers.New(handlers.source, submittedFormConfirmer, handlers.flashes.Notifier(context), reloader, subscribers.Config{
		ListID:     listID,
		ReloadMode: subscribers.ReloadDocument,
		Logger:     handlers.logger,
	})
	if tableErr != nil {
		handlers.renderer.renderError(context, http.StatusBadRequest, errorTextMissingInput)
		return
	}

	outcome, deleteErr := table.Delete(context.Request.Context(), subscriberID)
	if deleteErr != nil {
		handlers.logger.Info(logEventDeleteSubscriberWeb,
			zap.String("subscriber_id", subscriberID),
			zap.Stringer("outcome", outcome),
			zap.Error(deleteErr),
		)
	}
	if outcome != subscribers.OutcomeDeleted {
		// The row stays listed; the error flash explains why.
		context.Redirect(http.StatusSeeOther, listPageURL)
	}
}

var submittedFormConfirmer = subscribers.ConfirmerFunc(func(context.Context, subscribers.Confirmation) (bool, error) {
	return true, nil
})

// redirectReloader reloads the table by sending the browser back to the list page.
type redirectReloader struct {
	context *gin.Context
	target  string
}

func (reloader redirectReloader) Reload(context.Context) error {
	reloader.context.Redirect(http.StatusSeeOther, reloader.target)
	return nil
}
