// Package routes provides HTTP route configuration for the collector.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/beacon-go/internal/collector"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/relay"
	"github.com/AtRiskMedia/beacon-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/beacon-go/internal/presentation/http/middleware"
)

// Deps carries everything route setup needs.
type Deps struct {
	ProjectID    string
	ProjectToken string
	Hub          *collector.Hub
	Relay        *relay.KafkaRelay // nil when no relay is configured
	Logger       *logging.ChanneledLogger
}

// SetupRoutes configures all collector routes and middleware.
func SetupRoutes(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	eventHandlers := handlers.NewEventHandlers(deps.ProjectID, deps.Hub, deps.Relay, deps.Logger)
	liveHandlers := handlers.NewLiveHandlers(deps.Hub, deps.Logger)

	api := r.Group("/api/v1")
	{
		api.GET("/health", eventHandlers.GetHealth)
		api.GET("/events/live", liveHandlers.GetLive)

		ingest := api.Group("/events")
		ingest.Use(middleware.BearerAuth(deps.ProjectToken))
		{
			ingest.POST("", eventHandlers.PostEvent)
		}
	}

	return r
}
