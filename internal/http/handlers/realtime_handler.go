package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hrdesk/internal/auth"
	"hrdesk/internal/realtime"
)

// Realtime upgrades to a websocket carrying row-change notifications. The
// session is bound to the caller's org and capability set at connect time.
func (d *Deps) Realtime() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  8192,
		WriteBufferSize: 8192,
		CheckOrigin:     d.allowedOrigin,
	}
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("⚠️ realtime upgrade for member %d: %v", cl.MemberID, err)
			return
		}
		defer conn.Close()

		s := d.Hub.Attach(cl.OrgID, cl.MemberID, capsOf(c))
		log.Printf("🔌 realtime session %s opened by member %d", s.ID, cl.MemberID)
		realtime.Serve(conn, s)
		log.Printf("🔌 realtime session %s closed", s.ID)
	}
}

// allowedOrigin admits requests without an Origin header and browser origins
// matching the API host or PUBLIC_URL.
func (d *Deps) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if d.Settings.PublicURL == "" {
		return false
	}
	pub, err := url.Parse(d.Settings.PublicURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, pub.Scheme) && strings.EqualFold(u.Host, pub.Host)
}
