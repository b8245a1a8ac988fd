package api

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/realtime"
)

// streamEvents serves order events over Server-Sent Events. Each broadcast
// becomes one "event:"/"data:" pair; a comment line every 30s keeps idle
// connections from being reaped by intermediaries.
func (s *Server) streamEvents(c *gin.Context) {
	events, cancel := s.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			writeSSE(w, ev)
			return true
		case <-keepAlive.C:
			io.WriteString(w, ": keep-alive\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func writeSSE(w io.Writer, ev realtime.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return
	}
	io.WriteString(w, "event: "+ev.Name+"\n")
	io.WriteString(w, "data: ")
	w.Write(payload)
	io.WriteString(w, "\n\n")
}
