package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleNotification always acknowledges. Rejecting would only cause
// redelivery storms; failures surface through the alert channel.
func (s *Server) handleNotification(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusOK)
		return
	}
	s.notifications.Handle(c.Request.Context(), payload)
	c.Status(http.StatusOK)
}
