// Package view projects the file collection into display rows.
package view

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/five82/peerdeck/internal/files"
)

// Field is a sortable column.
type Field int

const (
	FieldName Field = iota
	FieldSize
	FieldModified
)

func (f Field) String() string {
	switch f {
	case FieldSize:
		return "size"
	case FieldModified:
		return "modified"
	default:
		return "name"
	}
}

// ParseField maps a column name to a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return FieldName, nil
	case "size":
		return FieldSize, nil
	case "modified", "date", "last_modified":
		return FieldModified, nil
	default:
		return FieldName, fmt.Errorf("unknown sort field %q", s)
	}
}

// Sort is the active ordering.
type Sort struct {
	Field     Field
	Ascending bool
}

// DefaultSort orders by name, ascending.
func DefaultSort() Sort {
	return Sort{Field: FieldName, Ascending: true}
}

// Toggle flips direction when f is already active, otherwise switches to f
// ascending.
func (s Sort) Toggle(f Field) Sort {
	if s.Field == f {
		return Sort{Field: f, Ascending: !s.Ascending}
	}
	return Sort{Field: f, Ascending: true}
}

// Row is one projected record.
type Row struct {
	files.Record
	Selected bool
}

// Collator compares names by locale rules. It is safe for concurrent use.
type Collator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// NewCollator builds a collator for a BCP-47 tag. Unknown tags fall back to
// the root locale.
func NewCollator(locale string) *Collator {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Und
	}
	return &Collator{c: collate.New(tag, collate.IgnoreCase)}
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	if c == nil {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}

// Project sorts records by s and marks the selected key. Ties keep arrival
// order. records is not modified.
func Project(records []files.Record, s Sort, selected string, coll *Collator) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Record: r, Selected: selected != "" && r.Key == selected}
	}

	cmp := comparator(s.Field, coll)
	sort.SliceStable(rows, func(i, j int) bool {
		if s.Ascending {
			return cmp(rows[i].Record, rows[j].Record) < 0
		}
		return cmp(rows[i].Record, rows[j].Record) > 0
	})
	return rows
}

// IndexOf returns the row position of key, or -1.
func IndexOf(rows []Row, key string) int {
	for i, r := range rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}

func comparator(f Field, coll *Collator) func(a, b files.Record) int {
	switch f {
	case FieldSize:
		return func(a, b files.Record) int {
			switch {
			case a.SizeMB < b.SizeMB:
				return -1
			case a.SizeMB > b.SizeMB:
				return 1
			}
			return 0
		}
	case FieldModified:
		return func(a, b files.Record) int {
			return a.LastModified.Compare(b.LastModified)
		}
	default:
		return func(a, b files.Record) int {
			return coll.Compare(a.Name, b.Name)
		}
	}
}
