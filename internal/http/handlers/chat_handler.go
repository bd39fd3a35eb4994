package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
)

func (d *Deps) SendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			ReceiverID int64  `json:"receiver_id" binding:"required"`
			Body       string `json:"body"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		msg, err := d.Chat.Send(c.Request.Context(), cl.OrgID, cl.MemberID, in.ReceiverID, in.Body)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": msg})
	}
}

// Conversation pages through the messages exchanged with :peer.
func (d *Deps) Conversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		peer, ok := idParam(c, "peer")
		if !ok {
			return
		}
		beforeID, _ := strconv.ParseInt(c.Query("before_id"), 10, 64)
		limit, _ := strconv.Atoi(c.Query("limit"))

		cl := auth.MustClaims(c)
		rows, err := d.Chat.Conversation(c.Request.Context(), cl.OrgID, cl.MemberID, peer, beforeID, limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

// UnreadCounts maps sender ids to the caller's unread message counts.
func (d *Deps) UnreadCounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		counts, err := d.Chat.Unread(c.Request.Context(), cl.OrgID, cl.MemberID)
		if err != nil {
			fail(c, err)
			return
		}
		out := make(map[string]int64, len(counts))
		var total int64
		for peer, n := range counts {
			out[strconv.FormatInt(peer, 10)] = n
			total += n
		}
		c.JSON(http.StatusOK, gin.H{"data": out, "total": total})
	}
}

func (d *Deps) MarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			PeerID int64 `json:"peer_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cl := auth.MustClaims(c)
		n, err := d.Chat.MarkRead(c.Request.Context(), cl.OrgID, cl.MemberID, in.PeerID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}

func (d *Deps) DeleteMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		cl := auth.MustClaims(c)
		if err := d.Chat.Delete(c.Request.Context(), cl.OrgID, cl.MemberID, id); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}
