// Package store provides org-scoped CRUD over gorm models. Every mutation
// is announced to a realtime.Publisher.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"hrdesk/internal/models"
	"hrdesk/internal/query"
	"hrdesk/internal/realtime"
)

var ErrNotFound = errors.New("not found")

// Scope restricts reads and writes to an org and, unless All is set, to rows
// owned by the member.
type Scope struct {
	OrgID    int64
	MemberID int64
	All      bool
}

// Spec describes a table.
type Spec struct {
	Name string
	// Owners are the columns that make a row belong to a member.
	Owners []string
	// Shared, when set, makes rows with this column NULL visible to every
	// member of the org.
	Shared  string
	Columns query.Columns
}

// Visibility derives the realtime visibility rule of the table.
func (s Spec) Visibility() realtime.Visibility {
	if len(s.Owners) == 0 {
		return realtime.Everyone
	}
	return realtime.OwnedBy(s.Shared, s.Owners...)
}

type Table[T any] struct {
	db   *gorm.DB
	pub  realtime.Publisher
	spec Spec
}

func New[T any](db *gorm.DB, pub realtime.Publisher, spec Spec) *Table[T] {
	if pub == nil {
		pub = realtime.Discard{}
	}
	return &Table[T]{db: db, pub: pub, spec: spec}
}

func (t *Table[T]) Spec() Spec             { return t.spec }
func (t *Table[T]) Name() string           { return t.spec.Name }
func (t *Table[T]) DB() *gorm.DB           { return t.db }
func (t *Table[T]) Columns() query.Columns { return t.spec.Columns }

// WithTx returns a copy bound to tx whose events go to buf.
func (t *Table[T]) WithTx(tx *gorm.DB, buf *realtime.Buffer) *Table[T] {
	return &Table[T]{db: tx, pub: buf, spec: t.spec}
}

// Scoped returns a query on the table already restricted to s, for reads
// the filter grammar cannot express.
func (t *Table[T]) Scoped(ctx context.Context, s Scope) *gorm.DB { return t.scoped(ctx, s) }

func (t *Table[T]) scoped(ctx context.Context, s Scope) *gorm.DB {
	db := t.db.WithContext(ctx).Model(new(T)).Where("org_id = ?", s.OrgID)
	if s.All || len(t.spec.Owners) == 0 {
		return db
	}
	conds := make([]string, 0, len(t.spec.Owners)+1)
	args := make([]any, 0, len(t.spec.Owners))
	for _, col := range t.spec.Owners {
		conds = append(conds, col+" = ?")
		args = append(args, s.MemberID)
	}
	if t.spec.Shared != "" {
		conds = append(conds, t.spec.Shared+" IS NULL")
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func (t *Table[T]) List(ctx context.Context, s Scope, q query.Query) ([]T, error) {
	var rows []T
	if err := q.Apply(t.scoped(ctx, s)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", t.spec.Name, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (t *Table[T]) Count(ctx context.Context, s Scope, q query.Query) (int64, error) {
	var n int64
	if err := q.Where(t.scoped(ctx, s)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", t.spec.Name, err)
	}
	return n, nil
}

func (t *Table[T]) Get(ctx context.Context, s Scope, id int64) (*T, error) {
	var row T
	err := t.scoped(ctx, s).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", t.spec.Name, id, err)
	}
	return &row, nil
}

// First returns the first row matching q.
func (t *Table[T]) First(ctx context.Context, s Scope, q query.Query) (*T, error) {
	var row T
	q.Limit = 1
	err := q.Apply(t.scoped(ctx, s)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first %s: %w", t.spec.Name, err)
	}
	return &row, nil
}

// Create stamps the org onto row and inserts it.
func (t *Table[T]) Create(ctx context.Context, s Scope, row *T) error {
	tenanted, ok := any(row).(models.Tenanted)
	if !ok {
		return fmt.Errorf("create %s: %T is not org scoped", t.spec.Name, row)
	}
	tenanted.SetOrgID(s.OrgID)
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create %s: %w", t.spec.Name, err)
	}
	t.publish(ctx, realtime.Insert, s.OrgID, row, nil)
	return nil
}

// Update applies fields to the row and returns the updated row.
func (t *Table[T]) Update(ctx context.Context, s Scope, id int64, fields map[string]any) (*T, error) {
	old, err := t.Get(ctx, s, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return old, nil
	}
	if err := t.scoped(ctx, s).Where("id = ?", id).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update %s %d: %w", t.spec.Name, id, err)
	}
	row, err := t.Get(ctx, Scope{OrgID: s.OrgID, All: true}, id)
	if err != nil {
		return nil, err
	}
	t.publish(ctx, realtime.Update, s.OrgID, row, old)
	return row, nil
}

// UpdateWhere applies fields to every row matching q and returns how many
// rows changed.
func (t *Table[T]) UpdateWhere(ctx context.Context, s Scope, q query.Query, fields map[string]any) (int64, error) {
	var ids []int64
	if err := q.Where(t.scoped(ctx, s)).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("update %s: %w", t.spec.Name, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var olds []T
	if err := t.byIDs(ctx, s.OrgID, ids).Order("id").Find(&olds).Error; err != nil {
		return 0, fmt.Errorf("update %s: %w", t.spec.Name, err)
	}
	res := t.byIDs(ctx, s.OrgID, ids).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("update %s: %w", t.spec.Name, res.Error)
	}
	var rows []T
	if err := t.byIDs(ctx, s.OrgID, ids).Order("id").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("update %s: %w", t.spec.Name, err)
	}
	for i := range rows {
		var old *T
		if i < len(olds) {
			old = &olds[i]
		}
		t.publish(ctx, realtime.Update, s.OrgID, &rows[i], old)
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) Delete(ctx context.Context, s Scope, id int64) error {
	old, err := t.Get(ctx, s, id)
	if err != nil {
		return err
	}
	if err := t.scoped(ctx, s).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete %s %d: %w", t.spec.Name, id, err)
	}
	t.publish(ctx, realtime.Delete, s.OrgID, nil, old)
	return nil
}

// DeleteWhere removes every row matching q.
func (t *Table[T]) DeleteWhere(ctx context.Context, s Scope, q query.Query) (int64, error) {
	var olds []T
	if err := q.Where(t.scoped(ctx, s)).Order("id").Find(&olds).Error; err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.spec.Name, err)
	}
	if len(olds) == 0 {
		return 0, nil
	}
	res := q.Where(t.scoped(ctx, s)).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", t.spec.Name, res.Error)
	}
	for i := range olds {
		t.publish(ctx, realtime.Delete, s.OrgID, nil, &olds[i])
	}
	return res.RowsAffected, nil
}

func (t *Table[T]) byIDs(ctx context.Context, orgID int64, ids []int64) *gorm.DB {
	return t.db.WithContext(ctx).Model(new(T)).Where("org_id = ? AND id IN ?", orgID, ids)
}

// Publish announces an externally performed mutation.
func (t *Table[T]) Publish(ctx context.Context, typ realtime.EventType, orgID int64, row, old *T) {
	t.publish(ctx, typ, orgID, row, old)
}

func (t *Table[T]) publish(ctx context.Context, typ realtime.EventType, orgID int64, row, old *T) {
	var rec, prev any
	if row != nil {
		rec = row
	}
	if old != nil {
		prev = old
	}
	ev, err := realtime.NewEvent(t.spec.Name, typ, orgID, rec, prev)
	if err != nil {
		log.Printf("⚠️ building %s %s event: %v", t.spec.Name, typ, err)
		return
	}
	if err := t.pub.Publish(ctx, ev); err != nil {
		log.Printf("⚠️ publishing %s %s event: %v", t.spec.Name, typ, err)
	}
}
