package files

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/peerdeck/internal/backend"
)

// Type classifies a file for display.
type Type int

const (
	Other Type = iota
	PDF
	Image
	Presentation
	Text
)

func (t Type) String() string {
	switch t {
	case PDF:
		return "PDF"
	case Image:
		return "Image"
	case Presentation:
		return "Presentation"
	case Text:
		return "Text"
	default:
		return "Other"
	}
}

// Record is a validated file entry.
type Record struct {
	Key          string
	Name         string
	SizeMB       float64
	Type         Type
	LastModified time.Time // zero when unknown
	Hash         string
}

// ModifiedKnown reports whether the backend supplied a modification time.
func (r Record) ModifiedKnown() bool {
	return !r.LastModified.IsZero()
}

// ValidationError describes a record dropped from a batch.
type ValidationError struct {
	Index  int
	Name   string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("file record %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("file record %d (%q): %s", e.Index, e.Name, e.Reason)
}

const syntheticPrefix = "local:"

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Validate converts a raw batch into records. Invalid records and later
// duplicates of a hash are dropped and described in the returned errors.
// Arrival order is kept.
func Validate(raw []backend.RawFile) ([]Record, []ValidationError) {
	records := make([]Record, 0, len(raw))
	var problems []ValidationError
	seenHash := make(map[string]bool, len(raw))
	nameCount := make(map[string]int)

	for i, r := range raw {
		rec, reason := convert(r)
		if reason != "" {
			problems = append(problems, ValidationError{Index: i, Name: r.Name, Reason: reason})
			continue
		}
		if rec.Hash != "" {
			if seenHash[rec.Hash] {
				problems = append(problems, ValidationError{Index: i, Name: r.Name, Reason: "duplicate hash"})
				continue
			}
			seenHash[rec.Hash] = true
			rec.Key = rec.Hash
		} else {
			n := nameCount[rec.Name]
			nameCount[rec.Name] = n + 1
			rec.Key = fmt.Sprintf("%s%s#%d", syntheticPrefix, rec.Name, n)
		}
		records = append(records, rec)
	}
	return records, problems
}

func convert(r backend.RawFile) (Record, string) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Record{}, "missing name"
	}
	if math.IsNaN(r.Size) || math.IsInf(r.Size, 0) || r.Size < 0 {
		return Record{}, fmt.Sprintf("invalid size %v", r.Size)
	}
	modified, ok := parseModified(r.LastModified)
	if !ok {
		return Record{}, fmt.Sprintf("invalid last_modified %q", r.LastModified)
	}
	return Record{
		Name:         name,
		SizeMB:       r.Size,
		Type:         resolveType(r.FileType, name),
		LastModified: modified,
		Hash:         strings.TrimSpace(r.Hash),
	}, ""
}

func parseModified(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
		return time.Time{}, true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func resolveType(declared, name string) Type {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "pdf":
		return PDF
	case "image":
		return Image
	case "presentation":
		return Presentation
	case "text":
		return Text
	}
	return TypeFromName(name)
}

// TypeFromName infers a Type from the file extension.
func TypeFromName(name string) Type {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDF
	case ".jpg", ".jpeg", ".png", ".gif":
		return Image
	case ".ppt", ".pptx", ".key":
		return Presentation
	case ".txt", ".md":
		return Text
	default:
		return Other
	}
}
