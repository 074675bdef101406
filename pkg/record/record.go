// Package record holds the in-memory representation of a decrypted secret
// record: typed fields, custom fields, file attachments, and the accessors
// the notation engine uses to reach into them.
//
// Records are produced fresh per fetch by a secrets.Fetcher and are never
// mutated by the notation subsystem. Accessors report "not found" as a
// clean boolean rather than an error so callers can apply their own
// match-count policy.
package record

import (
	"context"
	"fmt"
	"time"
)

// Field is one entry in a record's standard or custom field list.
//
// Value is always a list, even for scalar fields. It may be empty, a
// singleton, or multi-valued; elements are primitive strings or nested
// dict-like structures (map[string]interface{} after JSON decoding).
type Field struct {
	Type     string        `json:"type"`
	Label    string        `json:"label,omitempty"`
	Value    []interface{} `json:"value"`
	Required bool          `json:"required,omitempty"`
}

// LabelOrType returns the field's label if set, otherwise its type. Used as
// the merge key when reference fields are inflated into a dictionary.
func (f *Field) LabelOrType() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Type
}

// File is a file attachment on a record. Content is fetched lazily through
// a download function installed by the transport layer.
type File struct {
	Uid          string
	Name         string
	Title        string
	Size         int64
	LastModified time.Time
	ContentType  string

	download func(ctx context.Context) ([]byte, error)
}

// SetDownloadFunc installs the lazy content accessor. The transport sets
// this when it decodes a record; tests may install a stub.
func (f *File) SetDownloadFunc(fn func(ctx context.Context) ([]byte, error)) {
	f.download = fn
}

// Download fetches the file's binary content.
func (f *File) Download(ctx context.Context) ([]byte, error) {
	if f.download == nil {
		return nil, fmt.Errorf("file %s has no content source", f.Uid)
	}
	return f.download(ctx)
}

// Matches reports whether name equals the file's name, title, or UID.
// Comparison is case-sensitive and exact.
func (f *File) Matches(name string) bool {
	return f.Name == name || f.Title == name || f.Uid == name
}

// Record is one decrypted secret record.
//
// Uid is unique within one fetch result; Title is not. Custom field labels
// and types are not guaranteed unique either; first match wins.
type Record struct {
	Uid    string
	Title  string
	Type   string
	Notes  string
	Fields []Field
	Custom []Field
	Files  []*File
}

// StandardFields returns every standard field whose type or label equals
// name. Matching is case-sensitive and exact.
func (r *Record) StandardFields(name string) []*Field {
	return matchFields(r.Fields, name)
}

// CustomFields returns every custom field whose type or label equals name.
func (r *Record) CustomFields(name string) []*Field {
	return matchFields(r.Custom, name)
}

// StandardField returns the first standard field matching name by type or
// label, or false when there is none.
func (r *Record) StandardField(name string) (*Field, bool) {
	return firstField(r.Fields, name)
}

// CustomField returns the first custom field matching name by type or
// label, or false when there is none. Duplicate labels are tolerated; the
// first match wins.
func (r *Record) CustomField(name string) (*Field, bool) {
	return firstField(r.Custom, name)
}

// FindFiles returns every attachment matching name by file name, title, or
// UID.
func (r *Record) FindFiles(name string) []*File {
	var matches []*File
	for _, f := range r.Files {
		if f.Matches(name) {
			matches = append(matches, f)
		}
	}
	return matches
}

func matchFields(fields []Field, name string) []*Field {
	var matches []*Field
	for i := range fields {
		if fields[i].Type == name || fields[i].Label == name {
			matches = append(matches, &fields[i])
		}
	}
	return matches
}

func firstField(fields []Field, name string) (*Field, bool) {
	for i := range fields {
		if fields[i].Type == name || fields[i].Label == name {
			return &fields[i], true
		}
	}
	return nil, false
}

// Dedupe collapses records sharing a UID into one, keeping the first
// occurrence and preserving order. Shortcut/link aliasing can surface the
// same record twice in a fetch result; folding duplicates before counting
// avoids false "multiple records match" errors.
func Dedupe(records []*Record) []*Record {
	seen := make(map[string]bool, len(records))
	out := records[:0:0]
	for _, rec := range records {
		if rec == nil || seen[rec.Uid] {
			continue
		}
		seen[rec.Uid] = true
		out = append(out, rec)
	}
	return out
}
