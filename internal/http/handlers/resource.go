package handlers

import (
	"fmt"
	"math"
	"net/http"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/query"
	"hrdesk/internal/store"
)

// Resource exposes a table through list/count/get/create/update/delete
// endpoints. Reads use the caller's scope; writes are open to managers of
// the resource and, for OwnerWritable columns, to the row's owners.
type Resource[T any] struct {
	Table    *store.Table[T]
	Resource string
	// Writable columns a manager may patch.
	Writable []string
	// OwnerWritable columns a non-manager owner may patch.
	OwnerWritable []string
	// TimeColumns are parsed as RFC 3339 timestamps when patched.
	TimeColumns []string
	// BeforeCreate validates the decoded row and fills server-side fields.
	BeforeCreate func(c *gin.Context, cl *auth.Claims, row *T) error
	// BeforeUpdate may adjust fields once the column checks passed.
	BeforeUpdate func(c *gin.Context, old *T, fields map[string]any) error
}

func (r Resource[T]) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := query.Parse(c.Request.URL.Query(), r.Table.Columns(), "access_token")
		if err != nil {
			fail(c, err)
			return
		}
		rows, err := r.Table.List(c.Request.Context(), scope(c, r.Resource), q)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
	}
}

func (r Resource[T]) Count() gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := query.Parse(c.Request.URL.Query(), r.Table.Columns(), "access_token")
		if err != nil {
			fail(c, err)
			return
		}
		n, err := r.Table.Count(c.Request.Context(), scope(c, r.Resource), q)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

func (r Resource[T]) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		row, err := r.Table.Get(c.Request.Context(), scope(c, r.Resource), id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}

func (r Resource[T]) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var row T
		if err := c.ShouldBindJSON(&row); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		resetID(&row)
		cl := auth.MustClaims(c)
		if r.BeforeCreate != nil {
			if err := r.BeforeCreate(c, cl, &row); err != nil {
				fail(c, err)
				return
			}
		}
		if err := r.Table.Create(c.Request.Context(), store.Scope{OrgID: cl.OrgID, All: true}, &row); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": &row})
	}
}

func (r Resource[T]) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		allowed := r.Writable
		if !manages(c, r.Resource) {
			allowed = r.OwnerWritable
		}
		fields, err := r.fields(body, allowed)
		if err != nil {
			fail(c, err)
			return
		}

		s := scope(c, r.Resource)
		old, err := r.Table.Get(c.Request.Context(), s, id)
		if err != nil {
			fail(c, err)
			return
		}
		if r.BeforeUpdate != nil {
			if err := r.BeforeUpdate(c, old, fields); err != nil {
				fail(c, err)
				return
			}
		}
		row, err := r.Table.Update(c.Request.Context(), s, id, fields)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": row})
	}
}

func (r Resource[T]) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := r.Table.Delete(c.Request.Context(), scope(c, r.Resource), id); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	}
}

func (r Resource[T]) fields(body map[string]any, allowed []string) (map[string]any, error) {
	ok := make(map[string]bool, len(allowed))
	for _, col := range allowed {
		ok[col] = true
	}
	times := make(map[string]bool, len(r.TimeColumns))
	for _, col := range r.TimeColumns {
		times[col] = true
	}

	fields := make(map[string]any, len(body))
	for k, v := range body {
		if !ok[k] {
			return nil, fmt.Errorf("%w: field %q cannot be changed", errForbidden, k)
		}
		if s, isStr := v.(string); isStr && times[k] {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", errBadInput, k)
			}
			v = t
		}
		// JSON numbers decode as float64; whole ones go to the driver as integers
		if f, isNum := v.(float64); isNum && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			v = int64(f)
		}
		fields[k] = v
	}
	return fields, nil
}

// resetID clears a client supplied primary key so inserts always use the
// database sequence.
func resetID(row any) {
	v := reflect.ValueOf(row).Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	if f := v.FieldByName("ID"); f.IsValid() && f.CanSet() {
		f.Set(reflect.Zero(f.Type()))
	}
}

// Mount registers the read routes under g and, for managers, the write
// routes.
func (r Resource[T]) Mount(g *gin.RouterGroup, path string, writes gin.HandlerFunc) {
	g.GET(path, CanUse(r.Resource), r.List())
	g.GET(path+"/count", CanUse(r.Resource), r.Count())
	g.GET(path+"/:id", CanUse(r.Resource), r.Get())
	if writes == nil {
		return
	}
	g.POST(path, writes, r.Create())
	g.DELETE(path+"/:id", writes, r.Delete())
	if len(r.OwnerWritable) > 0 {
		g.PATCH(path+"/:id", CanUse(r.Resource), r.Update())
	} else {
		g.PATCH(path+"/:id", writes, r.Update())
	}
}
