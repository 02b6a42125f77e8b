package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/apiclient"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/devapi"
	"github.com/MarkoPoloResearchLab/mailadmin/internal/httpapi"
)

const (
	apiRoutePrefix              = "/api"
	webRouteRoot                = "/"
	webRouteSubscribers         = "/lists/:id/subscribers"
	webRouteSubscriberDelete    = "/subscribers/:id/delete"
	webRouteTemplate            = "/templates/:id"
	webRouteTemplateDelete      = "/templates/:id/delete"
	templatesLandingPath        = httpapi.TemplatesPagePath
	frontendConfigurationFailed = "configure web ui"
)

func subscribersLandingPath(listID string) string {
	return httpapi.SubscribersPagePath(listID)
}

func registerFrontendRoutes(router *gin.Engine, serverConfig ServerConfig, logger *zap.Logger, landingPath string) error {
	clientConfig := apiclient.Config{BaseURL: serverConfig.APIBaseURL, Logger: logger}
	listClient, listClientErr := apiclient.NewListClient(clientConfig)
	if listClientErr != nil {
		return fmt.Errorf("%s: %w", frontendConfigurationFailed, listClientErr)
	}
	templateClient, templateClientErr := apiclient.NewTemplateClient(clientConfig)
	if templateClientErr != nil {
		return fmt.Errorf("%s: %w", frontendConfigurationFailed, templateClientErr)
	}

	flashes, flashErr := httpapi.NewFlashMessages(serverConfig.SessionSecret, false, logger)
	if flashErr != nil {
		return fmt.Errorf("%s: %w", frontendConfigurationFailed, flashErr)
	}

	footerHTML := httpapi.RenderFooterHTML("")
	subscriberPages := httpapi.NewSubscriberPageHandlers(listClient, flashes, footerHTML, logger)
	templatePages := httpapi.NewTemplatePageHandlers(templateClient, flashes, footerHTML, logger)

	router.GET(webRouteRoot, func(context *gin.Context) {
		context.Redirect(http.StatusFound, landingPath)
	})
	router.GET(webRouteSubscribers, subscriberPages.RenderSubscribers)
	router.GET(webRouteSubscriberDelete, subscriberPages.RenderConfirmDelete)
	router.POST(webRouteSubscriberDelete, subscriberPages.DeleteSubscriber)
	router.GET(httpapi.TemplatesPagePath, templatePages.RenderTemplates)
	router.POST(httpapi.TemplatesPagePath, templatePages.CreateTemplate)
	router.GET(httpapi.NewTemplatePagePath, templatePages.RenderNewTemplate)
	router.GET(webRouteTemplate, templatePages.RenderPreview)
	router.GET(webRouteTemplateDelete, templatePages.RenderConfirmDelete)
	router.POST(webRouteTemplateDelete, templatePages.DeleteTemplate)
	return nil
}

func registerBackendRoutes(router *gin.Engine, database *gorm.DB, logger *zap.Logger) {
	devapi.RegisterRoutes(router.Group(apiRoutePrefix), devapi.NewHandlers(database, logger))
}
