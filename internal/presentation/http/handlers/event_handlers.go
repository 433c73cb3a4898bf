// Package handlers provides the collector's HTTP handlers: event ingest,
// live tail, and health.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/beacon-go/internal/collector"
	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/relay"
)

// EventHandlers serves the receiving half of the event wire contract.
type EventHandlers struct {
	projectID string
	hub       *collector.Hub
	relay     *relay.KafkaRelay // nil when no relay is configured
	logger    *logging.ChanneledLogger
}

// NewEventHandlers creates handlers bound to one project id.
func NewEventHandlers(projectID string, hub *collector.Hub, kafkaRelay *relay.KafkaRelay, logger *logging.ChanneledLogger) *EventHandlers {
	return &EventHandlers{projectID: projectID, hub: hub, relay: kafkaRelay, logger: logger}
}

// PostEvent accepts one enriched event. The body must match the wire shape;
// only structural validation happens here, the collector is a dev sink, not
// an ingestion service.
func (h *EventHandlers) PostEvent(c *gin.Context) {
	marker := performance.StartMarker("collector:ingest")
	defer func() {
		marker.Complete()
		h.logger.Perf().Debug("Ingest handled",
			"operation", marker.Operation,
			"duration", marker.Duration,
			"success", marker.Success)
	}()

	if projectID := c.Query("projectId"); projectID != h.projectID {
		marker.Success = false
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown project id"})
		return
	}

	var ev events.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event body"})
		return
	}
	if err := events.ValidateName(ev.Name); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.hub.Seen(ev.ID) {
		h.logger.Collector().Warn("Duplicate event id", "id", ev.ID, "event", ev.Name)
	}

	h.logger.Collector().Info("Event accepted",
		"event", ev.Name,
		"id", ev.ID,
		"datetimeUtc", ev.DatetimeUTC,
		"firstOfSession", ev.FirstOfSession,
		"previousEvent", ev.PreviousEventName)

	h.hub.Publish(ev)

	if h.relay != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := h.relay.Forward(ctx, ev); err != nil {
			h.logger.Collector().Warn("Relay forward failed", "event", ev.Name, "error", err.Error())
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": ev.ID})
}

// GetHealth reports liveness and basic counters.
func (h *EventHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"accepted": h.hub.Accepted(),
	})
}
