package handlers

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lumo-engine/internal/platform/ctxutil"
	"github.com/yungbote/lumo-engine/internal/realtime"
)

type EventsHandler struct {
	hub *realtime.Hub
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// GET /api/events
func (h *EventsHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())

	client := h.hub.Subscribe(rd.UserID)
	defer h.hub.Unsubscribe(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-client.Done():
			return false
		case msg := <-client.Outbound:
			data, err := json.Marshal(msg.Data)
			if err != nil {
				return true
			}
			c.SSEvent(string(msg.Event), string(data))
			return true
		}
	})
}
