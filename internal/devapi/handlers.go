// Package devapi is a reference implementation of the mailing list REST API
// backed by gorm. Local runs and end-to-end tests point the admin at it.
package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/model"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/storage"
)

const (
	jsonKeyError = "error"

	errorValueInvalidJSON       = "invalid_json"
	errorValueMissingFields     = "missing_fields"
	errorValueInvalidFields     = "invalid_fields"
	errorValueMissingList       = "missing_list"
	errorValueUnknownList       = "unknown_list"
	errorValueMissingSubscriber = "missing_subscriber"
	errorValueUnknownSubscriber = "unknown_subscriber"
	errorValueSubscriberExists  = "subscriber_exists"
	errorValueMissingTemplate   = "missing_template"
	errorValueUnknownTemplate   = "unknown_template"
	errorValueQueryFailed       = "query_failed"
	errorValueSaveFailed        = "save_failed"
	errorValueDeleteFailed      = "delete_failed"

	logEventCreateList       = "create_list"
	logEventListSubscribers  = "list_subscribers"
	logEventCreateSubscriber = "create_subscriber"
	logEventDeleteSubscriber = "delete_subscriber"
	logEventListTemplates    = "list_templates"
	logEventCreateTemplate   = "create_template"
	logEventDeleteTemplate   = "delete_template"

	subscriberOrderClause      = "created_at asc, email asc"
	templateOrderClause        = "created_at asc, name asc"
	subscriberListFilterClause = "list_id = ?"
	identifierFilterClause     = "id = ?"
)

// Handlers serves the lists, subscribers and templates resources.
type Handlers struct {
	database *gorm.DB
	logger   *zap.Logger
}

func NewHandlers(database *gorm.DB, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{database: database, logger: logger}
}

type createListRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

type createSubscriberRequest struct {
	Name  string `json:"name" form:"name"`
	Email string `json:"email" form:"email" binding:"required,email"`
}

func (handlers *Handlers) CreateList(context *gin.Context) {
	var request createListRequest
	if bindErr := context.ShouldBind(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingFields})
		return
	}

	list, listErr := model.NewMailingList(request.Name)
	if listErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidFields})
		return
	}

	if err := handlers.database.WithContext(context.Request.Context()).Create(&list).Error; err != nil {
		handlers.logger.Warn(logEventCreateList, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusCreated, list)
}

func (handlers *Handlers) ListSubscribers(context *gin.Context) {
	listIdentifier := strings.TrimSpace(context.Param("id"))
	if listIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingList})
		return
	}

	database := handlers.database.WithContext(context.Request.Context())
	if !handlers.listExists(context, database, listIdentifier) {
		return
	}

	pageRequest := model.ParsePageRequest(context.Request.URL.Query())
	baseQuery := database.Model(&model.Subscriber{}).Where(subscriberListFilterClause, listIdentifier)

	var total int64
	if err := baseQuery.Count(&total).Error; err != nil {
		handlers.logger.Warn(logEventListSubscribers, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	var rows []model.Subscriber
	if err := database.
		Scopes(storage.PageScope(pageRequest)).
		Where(subscriberListFilterClause, listIdentifier).
		Order(subscriberOrderClause).
		Find(&rows).Error; err != nil {
		handlers.logger.Warn(logEventListSubscribers, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	context.JSON(http.StatusOK, buildPage(rows, total, pageRequest))
}

func (handlers *Handlers) CreateSubscriber(context *gin.Context) {
	listIdentifier := strings.TrimSpace(context.Param("id"))
	if listIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingList})
		return
	}

	var request createSubscriberRequest
	if bindErr := context.ShouldBind(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidFields})
		return
	}

	database := handlers.database.WithContext(context.Request.Context())
	if !handlers.listExists(context, database, listIdentifier) {
		return
	}

	subscriber, subscriberErr := model.NewSubscriber(model.SubscriberInput{
		ListID: listIdentifier,
		Email:  request.Email,
		Name:   request.Name,
	})
	if subscriberErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidFields})
		return
	}

	var existingCount int64
	if err := database.Model(&model.Subscriber{}).
		Where("list_id = ? AND email = ?", subscriber.ListID, subscriber.Email).
		Count(&existingCount).Error; err != nil {
		handlers.logger.Warn(logEventCreateSubscriber, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	if existingCount > 0 {
		context.JSON(http.StatusConflict, gin.H{jsonKeyError: errorValueSubscriberExists})
		return
	}

	if err := database.Create(&subscriber).Error; err != nil {
		handlers.logger.Warn(logEventCreateSubscriber, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusCreated, subscriber)
}

func (handlers *Handlers) DeleteSubscriber(context *gin.Context) {
	subscriberIdentifier := strings.TrimSpace(context.Param("id"))
	if subscriberIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingSubscriber})
		return
	}

	deleteResult := handlers.database.WithContext(context.Request.Context()).
		Where(identifierFilterClause, subscriberIdentifier).
		Delete(&model.Subscriber{})
	if deleteResult.Error != nil {
		handlers.logger.Warn(logEventDeleteSubscriber, zap.Error(deleteResult.Error))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueDeleteFailed})
		return
	}
	if deleteResult.RowsAffected == 0 {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownSubscriber})
		return
	}

	context.Status(http.StatusNoContent)
	context.Writer.WriteHeaderNow()
}

func (handlers *Handlers) ListTemplates(context *gin.Context) {
	database := handlers.database.WithContext(context.Request.Context())
	pageRequest := model.ParsePageRequest(context.Request.URL.Query())

	var total int64
	if err := database.Model(&model.Template{}).Count(&total).Error; err != nil {
		handlers.logger.Warn(logEventListTemplates, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	var rows []model.Template
	if err := database.
		Scopes(storage.PageScope(pageRequest)).
		Order(templateOrderClause).
		Find(&rows).Error; err != nil {
		handlers.logger.Warn(logEventListTemplates, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	context.JSON(http.StatusOK, buildPage(rows, total, pageRequest))
}

func (handlers *Handlers) GetTemplate(context *gin.Context) {
	templateIdentifier := strings.TrimSpace(context.Param("id"))
	if templateIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingTemplate})
		return
	}

	var template model.Template
	findErr := handlers.database.WithContext(context.Request.Context()).
		First(&template, identifierFilterClause, templateIdentifier).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownTemplate})
		return
	}
	if findErr != nil {
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	context.JSON(http.StatusOK, template)
}

// CreateTemplate accepts either a JSON body or a form-encoded body with name and content.
func (handlers *Handlers) CreateTemplate(context *gin.Context) {
	var request model.TemplateInput
	if bindErr := context.ShouldBind(&request); bindErr != nil {
		errorValue := errorValueInvalidJSON
		var validationErrs validator.ValidationErrors
		if errors.As(bindErr, &validationErrs) {
			errorValue = errorValueMissingFields
		}
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValue})
		return
	}

	template, templateErr := model.NewTemplate(request)
	if templateErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidFields})
		return
	}

	if err := handlers.database.WithContext(context.Request.Context()).Create(&template).Error; err != nil {
		handlers.logger.Warn(logEventCreateTemplate, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusCreated, template)
}

func (handlers *Handlers) DeleteTemplate(context *gin.Context) {
	templateIdentifier := strings.TrimSpace(context.Param("id"))
	if templateIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingTemplate})
		return
	}

	deleteResult := handlers.database.WithContext(context.Request.Context()).
		Where(identifierFilterClause, templateIdentifier).
		Delete(&model.Template{})
	if deleteResult.Error != nil {
		handlers.logger.Warn(logEventDeleteTemplate, zap.Error(deleteResult.Error))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueDeleteFailed})
		return
	}
	if deleteResult.RowsAffected == 0 {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownTemplate})
		return
	}

	context.Status(http.StatusNoContent)
	context.Writer.WriteHeaderNow()
}

func (handlers *Handlers) listExists(context *gin.Context, database *gorm.DB, listIdentifier string) bool {
	var listCount int64
	if err := database.Model(&model.MailingList{}).Where(identifierFilterClause, listIdentifier).Count(&listCount).Error; err != nil {
		handlers.logger.Warn(logEventListSubscribers, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return false
	}
	if listCount == 0 {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownList})
		return false
	}
	return true
}

// buildPage wraps rows in page metadata. An unpaginated read is reported as a
// single page holding every row.
func buildPage[T any](rows []T, total int64, pageRequest model.PageRequest) model.Page[T] {
	if !pageRequest.Paginate {
		perPage := len(rows)
		if perPage == 0 {
			perPage = pageRequest.PerPage
		}
		return model.NewPage(rows, total, perPage, 1)
	}
	return model.NewPage(rows, total, pageRequest.PerPage, pageRequest.Page)
}
