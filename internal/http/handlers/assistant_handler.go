package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/assistant"
)

// AssistantChat forwards a conversation to the configured LLM. The API key
// never leaves the server.
func (d *Deps) AssistantChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Messages []assistant.Message `json:"messages" binding:"required"`
			Model    string              `json:"model"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
			return
		}
		reply, err := d.Assistant.Chat(c.Request.Context(), req.Messages, req.Model)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}
