package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps webhook payloads well above anything the
// processor sends while keeping hostile bodies out of memory.
const maxWebhookBody = 1 << 20

func (s *Server) HandleProcessorWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	signature := c.GetHeader("Processor-Signature")
	if err := s.webhookSvc.HandleEvent(c.Request.Context(), signature, payload); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
