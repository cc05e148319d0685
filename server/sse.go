package server

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/ftthdiag/diagchat/models"
)

// sseWriter writes run events to a gin response as server-sent events.
type sseWriter struct {
	c *gin.Context
}

func newSSEWriter(c *gin.Context) *sseWriter {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &sseWriter{c: c}
}

func (w *sseWriter) WriteEvent(ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	w.c.SSEvent("message", string(data))
	w.c.Writer.Flush()
	return nil
}
