package handlers

import (
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hrdesk/internal/auth"
	"hrdesk/internal/models"
	"hrdesk/internal/rbac"
	"hrdesk/internal/storage"
	"hrdesk/internal/store"
)

// UploadDocument stores a multipart "file" for a member. Members upload
// for themselves; document managers may upload for anyone in the org.
func (d *Deps) UploadDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.MustClaims(c)
		ctx := c.Request.Context()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.Settings.MaxUploadBytes+1<<20)

		fh, err := c.FormFile("file")
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if d.Settings.MaxUploadBytes > 0 && fh.Size > d.Settings.MaxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}

		memberID := cl.MemberID
		if v := c.PostForm("member_id"); v != "" {
			memberID, err = strconv.ParseInt(v, 10, 64)
			if err != nil || memberID <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member_id"})
				return
			}
		}
		if memberID != cl.MemberID {
			if !manages(c, rbac.Documents) {
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "missing": rbac.Manage(rbac.Documents)})
				return
			}
			if _, err := d.Tables.Members.Get(ctx, store.Scope{OrgID: cl.OrgID, All: true}, memberID); err != nil {
				fail(c, err)
				return
			}
		}

		title := strings.TrimSpace(c.PostForm("title"))
		if title == "" {
			title = fh.Filename
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mime.TypeByExtension(path.Ext(fh.Filename))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
			return
		}
		defer f.Close()

		key := storage.DocumentKey(cl.OrgID, memberID, fh.Filename)
		if err := d.Objects.Put(ctx, key, io.Reader(f), fh.Size, contentType); err != nil {
			fail(c, err)
			return
		}

		doc := &models.EmployeeDocument{
			MemberID:    memberID,
			Title:       title,
			Category:    strings.TrimSpace(c.PostForm("category")),
			ObjectKey:   key,
			FileName:    storage.SafeName(fh.Filename),
			ContentType: contentType,
			Size:        fh.Size,
			UploadedBy:  cl.MemberID,
		}
		if err := d.Tables.Documents.Create(ctx, store.Scope{OrgID: cl.OrgID, All: true}, doc); err != nil {
			// the row is the index of the object, so drop the orphan
			if derr := d.Objects.Delete(ctx, key); derr != nil {
				log.Printf("⚠️ removing orphaned object %s: %v", key, derr)
			}
			fail(c, err)
			return
		}
		d.audit(c, "document.upload", "employee_document", doc.ID, map[string]any{"member_id": memberID, "size": fh.Size})
		c.JSON(http.StatusCreated, gin.H{"data": doc})
	}
}

// DocumentURL hands out a time-limited download URL.
func (d *Deps) DocumentURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		doc, err := d.Tables.Documents.Get(ctx, scope(c, rbac.Documents), id)
		if err != nil {
			fail(c, err)
			return
		}
		u, err := d.Objects.SignedURL(ctx, doc.ObjectKey, doc.FileName, d.Settings.DocumentURLTTL)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document file missing"})
			return
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"url":        u,
			"expires_at": d.Now().Add(d.Settings.DocumentURLTTL),
		})
	}
}

// DeleteDocument removes the stored object, then the row.
func (d *Deps) DeleteDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		s := scope(c, rbac.Documents)
		doc, err := d.Tables.Documents.Get(ctx, s, id)
		if err != nil {
			fail(c, err)
			return
		}
		if err := d.Objects.Delete(ctx, doc.ObjectKey); err != nil {
			fail(c, err)
			return
		}
		if err := d.Tables.Documents.Delete(ctx, s, id); err != nil {
			fail(c, err)
			return
		}
		d.audit(c, "document.delete", "employee_document", id, map[string]any{"member_id": doc.MemberID})
		c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
	}
}

// ServeFile serves objects of the local driver behind a signed URL.
func ServeFile(l *storage.Local) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		f, err := l.Open(key, c.Query("expires"), c.Query("sig"))
		switch {
		case errors.Is(err, storage.ErrBadSignature):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		st, err := f.Stat()
		if err != nil {
			fail(c, err)
			return
		}
		name := c.Query("name")
		if name == "" {
			name = path.Base(key)
		}
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		http.ServeContent(c.Writer, c.Request, name, st.ModTime(), f)
	}
}
