package devapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	routeLists           = "/lists"
	routeListSubscribers = "/lists/:id/subscribers"
	routeSubscriber      = "/subscribers/:id"
	routeTemplates       = "/templates"
	routeTemplate        = "/templates/:id"
	routePreflight       = "/*path"
	corsMaxAge           = 12 * time.Hour
)

// CORSConfig allows browser admins served from any origin to call the API.
func CORSConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	}
}

// RegisterRoutes mounts the resources under group, which is normally /api.
func RegisterRoutes(group *gin.RouterGroup, handlers *Handlers) {
	group.Use(cors.New(CORSConfig()))
	// Group middleware only runs for matched routes, so preflights need one.
	group.OPTIONS(routePreflight, func(context *gin.Context) {
		context.Status(http.StatusNoContent)
	})
	group.POST(routeLists, handlers.CreateList)
	group.GET(routeListSubscribers, handlers.ListSubscribers)
	group.POST(routeListSubscribers, handlers.CreateSubscriber)
	group.DELETE(routeSubscriber, handlers.DeleteSubscriber)
	group.GET(routeTemplates, handlers.ListTemplates)
	group.POST(routeTemplates, handlers.CreateTemplate)
	group.GET(routeTemplate, handlers.GetTemplate)
	group.DELETE(routeTemplate, handlers.DeleteTemplate)
}
