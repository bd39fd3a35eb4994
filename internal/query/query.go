// Package query turns URL parameters such as
//
//	?status=eq.pending&start_date=gte.2024-01-01&order=created_at.desc&limit=20
//
// into gorm clauses. Columns are checked against a whitelist before they
// reach SQL.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrBadFilter     = errors.New("malformed filter")
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type Op string

const (
	Eq    Op = "eq"
	Neq   Op = "neq"
	Gt    Op = "gt"
	Gte   Op = "gte"
	Lt    Op = "lt"
	Lte   Op = "lte"
	Like  Op = "like"
	ILike Op = "ilike"
	In    Op = "in"
	Is    Op = "is"
)

var sqlOps = map[Op]string{
	Eq:  "=",
	Neq: "<>",
	Gt:  ">",
	Gte: ">=",
	Lt:  "<",
	Lte: "<=",
}

type Filter struct {
	Column string
	Op     Op
	Value  string
	Values []string // In
}

type OrderBy struct {
	Column string
	Desc   bool
}

type Query struct {
	Filters []Filter
	Order   []OrderBy
	Limit   int
	Offset  int
}

// With returns a copy of q with one more filter.
func (q Query) With(column string, op Op, value any) Query {
	f := Filter{Column: column, Op: op}
	switch v := value.(type) {
	case []string:
		f.Values = v
	case []int64:
		for _, x := range v {
			f.Values = append(f.Values, fmt.Sprint(x))
		}
	default:
		f.Value = fmt.Sprint(v)
	}
	q.Filters = append(append([]Filter(nil), q.Filters...), f)
	return q
}

// Eq appends an equality filter.
func (q Query) Eq(column string, value any) Query { return q.With(column, Eq, value) }

// Columns is the whitelist of a table.
type Columns map[string]struct{}

func NewColumns(names ...string) Columns {
	c := make(Columns, len(names))
	for _, n := range names {
		c[n] = struct{}{}
	}
	return c
}

func (c Columns) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Parse reads filters and modifiers from v. Keys listed in reserved are
// skipped, as are order/limit/offset.
func Parse(v url.Values, cols Columns, reserved ...string) (Query, error) {
	skip := map[string]bool{"order": true, "limit": true, "offset": true}
	for _, r := range reserved {
		skip[r] = true
	}

	q := Query{Limit: DefaultLimit}

	for key, values := range v {
		if skip[key] {
			continue
		}
		if !cols.Has(key) {
			return Query{}, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
		for _, raw := range values {
			f, err := parseFilter(key, raw)
			if err != nil {
				return Query{}, err
			}
			q.Filters = append(q.Filters, f)
		}
	}

	if raw := v.Get("order"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			col, dir, _ := strings.Cut(part, ".")
			if !cols.Has(col) {
				return Query{}, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
			}
			switch dir {
			case "", "asc":
				q.Order = append(q.Order, OrderBy{Column: col})
			case "desc":
				q.Order = append(q.Order, OrderBy{Column: col, Desc: true})
			default:
				return Query{}, fmt.Errorf("%w: order direction %q", ErrBadFilter, dir)
			}
		}
	}

	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Query{}, fmt.Errorf("%w: limit %q", ErrBadFilter, raw)
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		q.Limit = n
	}

	if raw := v.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Query{}, fmt.Errorf("%w: offset %q", ErrBadFilter, raw)
		}
		q.Offset = n
	}

	return q, nil
}

func parseFilter(col, raw string) (Filter, error) {
	opStr, val, ok := strings.Cut(raw, ".")
	if !ok {
		// bare value means equality
		return Filter{Column: col, Op: Eq, Value: raw}, nil
	}
	op := Op(opStr)
	switch op {
	case Eq, Neq, Gt, Gte, Lt, Lte, Like, ILike:
		return Filter{Column: col, Op: op, Value: val}, nil
	case In:
		if !strings.HasPrefix(val, "(") || !strings.HasSuffix(val, ")") {
			return Filter{}, fmt.Errorf("%w: %s=%s", ErrBadFilter, col, raw)
		}
		inner := strings.TrimSpace(val[1 : len(val)-1])
		if inner == "" {
			return Filter{}, fmt.Errorf("%w: empty in() for %s", ErrBadFilter, col)
		}
		parts := strings.Split(inner, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return Filter{Column: col, Op: In, Values: parts}, nil
	case Is:
		if val != "null" && val != "notnull" {
			return Filter{}, fmt.Errorf("%w: %s=%s", ErrBadFilter, col, raw)
		}
		return Filter{Column: col, Op: Is, Value: val}, nil
	}
	if isWord(opStr) {
		return Filter{}, fmt.Errorf("%w: unknown operator %q for %s", ErrBadFilter, opStr, col)
	}
	// values like "2024.01" or "Dr.Smith" are plain equality
	return Filter{Column: col, Op: Eq, Value: raw}, nil
}

// isWord reports whether s looks like an operator name. Dotted values that
// start with one need an explicit "eq." prefix.
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Where applies only the filters.
func (q Query) Where(db *gorm.DB) *gorm.DB {
	for _, f := range q.Filters {
		col := db.Statement.Quote(f.Column)
		switch f.Op {
		case In:
			db = db.Where(col+" IN ?", f.Values)
		case Is:
			if f.Value == "null" {
				db = db.Where(col + " IS NULL")
			} else {
				db = db.Where(col + " IS NOT NULL")
			}
		case Like:
			db = db.Where(col+" LIKE ?", likePattern(f.Value))
		case ILike:
			db = db.Where("LOWER("+col+") LIKE ?", strings.ToLower(likePattern(f.Value)))
		default:
			db = db.Where(col+" "+sqlOps[f.Op]+" ?", arg(f.Value))
		}
	}
	return db
}

// Apply applies filters, ordering and paging. Without an explicit order the
// rows come back by id.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	db = q.Where(db)
	if len(q.Order) == 0 {
		db = db.Order("id")
	}
	for _, o := range q.Order {
		expr := db.Statement.Quote(o.Column)
		if o.Desc {
			expr += " DESC"
		}
		db = db.Order(expr)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	db = db.Limit(limit)
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	return db
}

// arg keeps booleans typed so they compare correctly on every dialect.
func arg(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// "*" is accepted as a wildcard alongside SQL's "%".
func likePattern(v string) string { return strings.ReplaceAll(v, "*", "%") }
