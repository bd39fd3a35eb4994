package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrdesk/internal/accounts"
	"hrdesk/internal/analytics"
	"hrdesk/internal/assistant"
	"hrdesk/internal/attendance"
	"hrdesk/internal/audit"
	"hrdesk/internal/auth"
	"hrdesk/internal/chat"
	"hrdesk/internal/leave"
	"hrdesk/internal/projects"
	"hrdesk/internal/query"
	"hrdesk/internal/rbac"
	"hrdesk/internal/realtime"
	"hrdesk/internal/storage"
	"hrdesk/internal/store"
)

// Settings are the request-handling knobs taken from config.
type Settings struct {
	JWTSecret        string
	SecureCookie     bool
	Location         *time.Location
	SignupOrg        string
	SignupNeedsAdmin bool
	DocumentURLTTL   time.Duration
	MaxUploadBytes   int64

	// PublicURL is the browser-facing origin allowed to open realtime
	// websockets besides the API's own host.
	PublicURL string
}

// Deps carries everything handlers need.
type Deps struct {
	DB         *gorm.DB
	Tables     *store.Tables
	Checker    rbac.Checker
	Hub        *realtime.Hub
	Objects    storage.ObjectStore
	Assistant  *assistant.Client
	Attendance *attendance.Service
	Leave      *leave.Service
	Chat       *chat.Service
	Projects   *projects.Service
	Analytics  *analytics.Service
	Settings   Settings
	Now        func() time.Time
}

// NewDeps wires the domain services over db and pub.
func NewDeps(db *gorm.DB, pub realtime.Publisher, hub *realtime.Hub, objects storage.ObjectStore, llm *assistant.Client, policy attendance.Policy, s Settings) *Deps {
	tables := store.NewTables(db, pub)
	if objects == nil {
		objects = storage.Unconfigured{}
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	policy.Location = s.Location
	return &Deps{
		DB:         db,
		Tables:     tables,
		Checker:    rbac.Checker{DB: db},
		Hub:        hub,
		Objects:    objects,
		Assistant:  llm,
		Attendance: attendance.New(tables.Attendance, policy),
		Leave:      leave.New(tables, s.Location),
		Chat:       chat.New(tables),
		Projects:   projects.New(tables),
		Analytics:  analytics.New(db),
		Settings:   s,
		Now:        time.Now,
	}
}

const capsKey = "caps"

// Capabilities loads the caller's capability set once per request.
func Capabilities(chk rbac.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		caps, err := chk.Capabilities(c.Request.Context(), cl.MemberID, cl.OrgID)
		if err != nil {
			log.Printf("⚠️ loading capabilities of member %d: %v", cl.MemberID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load permissions"})
			return
		}
		c.Set(capsKey, caps)
		c.Next()
	}
}

func capsOf(c *gin.Context) rbac.Set {
	v, _ := c.Get(capsKey)
	caps, _ := v.(rbac.Set)
	return caps
}

// Require aborts with 403 unless the caller holds one of keys.
func Require(keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caps := capsOf(c)
		for _, k := range keys {
			if caps.Has(k) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "missing": keys[0]})
	}
}

// CanUse requires read or manage on resource.
func CanUse(resource string) gin.HandlerFunc {
	return Require(rbac.Read(resource), rbac.Manage(resource))
}

// scope opens every org row to holders of the manage capability and
// restricts everyone else to rows they own.
func scope(c *gin.Context, resource string) store.Scope {
	cl := auth.MustClaims(c)
	return store.Scope{OrgID: cl.OrgID, MemberID: cl.MemberID, All: capsOf(c).Has(rbac.Manage(resource))}
}

func manages(c *gin.Context, resource string) bool {
	return capsOf(c).Has(rbac.Manage(resource))
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (d *Deps) audit(c *gin.Context, action, resourceType string, resourceID int64, meta map[string]any) {
	e := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Meta:         meta,
		IP:           c.ClientIP(),
		UserAgent:    c.GetHeader("User-Agent"),
	}
	if cl, ok := auth.FromContext(c); ok {
		e.OrgID, e.MemberID, e.Initiator = cl.OrgID, cl.MemberID, cl.Initiator()
	} else if dev := auth.DeviceFromContext(c); dev != nil {
		e.OrgID, e.Initiator = dev.OrgID, "device:"+dev.Name
	}
	audit.Record(c.Request.Context(), d.DB, e)
}

// fail maps domain errors to HTTP statuses. Unknown errors are logged and
// reported as 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, query.ErrUnknownColumn), errors.Is(err, query.ErrBadFilter),
		errors.Is(err, leave.ErrInvalid),
		errors.Is(err, chat.ErrEmptyBody), errors.Is(err, chat.ErrBodyTooLong),
		errors.Is(err, chat.ErrSelf), errors.Is(err, chat.ErrUnknownPeer),
		errors.Is(err, projects.ErrUnknownMember), errors.Is(err, projects.ErrBadStatus),
		errors.Is(err, accounts.ErrWeakPassword), errors.Is(err, accounts.ErrInvalidInput), errors.Is(err, accounts.ErrUnknownRole),
		errors.Is(err, assistant.ErrEmptyPrompt), errors.Is(err, assistant.ErrInvalidRole),
		errors.Is(err, errBadInput):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrNotSender), errors.Is(err, errForbidden):
		status = http.StatusForbidden
	case errors.Is(err, leave.ErrOverlap), errors.Is(err, leave.ErrNotPending), errors.Is(err, leave.ErrNotCancelable),
		errors.Is(err, attendance.ErrAlreadyCheckedIn), errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut), errors.Is(err, attendance.ErrOnLeave),
		errors.Is(err, projects.ErrAlreadyOnTeam), errors.Is(err, accounts.ErrEmailTaken),
		errors.Is(err, gorm.ErrDuplicatedKey):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrNotConfigured), errors.Is(err, assistant.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var (
	errBadInput  = errors.New("invalid input")
	errForbidden = errors.New("forbidden")
)
