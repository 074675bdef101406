package notation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/internal/logging"
	"github.com/systmms/vaultpath/pkg/record"
	"github.com/systmms/vaultpath/pkg/secrets"
)

// uidPattern matches an opaque record UID: 22 URL-safe-base64 characters.
// Anything else is treated as a title.
var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{22}$`)

// Resolver evaluates notation strings against a record fetch capability.
//
// The resolver has no mutable state of its own; it is safe for concurrent
// use as long as the underlying Fetcher is reentrant. There is no caching:
// repeated resolutions re-fetch. Callers needing caching memoize at their
// layer keyed by Base(notation).
type Resolver struct {
	fetcher      secrets.Fetcher
	logger       *logging.Logger
	inflateDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for skip-and-continue diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithInflateDepth overrides the maximum reference-inflation recursion
// depth. Resolution fails when a reference chain exceeds it.
func WithInflateDepth(depth int) Option {
	return func(r *Resolver) { r.inflateDepth = depth }
}

// NewResolver creates a resolver over the given fetcher.
func NewResolver(fetcher secrets.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:      fetcher,
		logger:       logging.New(false, false),
		inflateDepth: defaultInflateDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetValue resolves a notation to a single value: a scalar, a list, or a
// dictionary. Reference fields (cardRef, addressRef) are inflated
// recursively before indexing.
//
// Legacy single-bracket dictionary access (name[key]) is accepted and
// always means "first element's property".
func (r *Resolver) GetValue(ctx context.Context, notation string) (interface{}, error) {
	sections, err := parseNotation(notation, true)
	if err != nil {
		return nil, err
	}
	sel := &sections[2]

	rec, err := r.lookupRecord(ctx, notation, sections[1].Text.Text)
	if err != nil {
		return nil, err
	}

	selector := strings.ToLower(sel.Text.Text)
	switch selector {
	case SelectorType:
		return rec.Type, nil
	case SelectorTitle:
		return rec.Title, nil
	case SelectorNotes:
		return rec.Notes, nil
	case SelectorFile:
		f, err := r.findFile(notation, rec, sel.Parameter.Text)
		if err != nil {
			return nil, err
		}
		return f.Download(ctx)
	}

	field, err := r.findField(notation, rec, selector, sel.Parameter.Text)
	if err != nil {
		return nil, err
	}

	value := field.Value
	if record.IsReference(field.Type) {
		value, err = r.inflateValue(ctx, notation, field.Type, value, r.inflateDepth)
		if err != nil {
			return nil, err
		}
	}

	return extractSingle(notation, value, sel.Index1, sel.Index2)
}

// GetResults resolves a notation to a list of strings, each element
// individually stringified (objects become their JSON text). Reference
// fields are returned as-is, without inflation.
func (r *Resolver) GetResults(ctx context.Context, notation string) ([]string, error) {
	sections, err := parseNotation(notation, true)
	if err != nil {
		return nil, err
	}
	sel := &sections[2]

	rec, err := r.lookupRecord(ctx, notation, sections[1].Text.Text)
	if err != nil {
		return nil, err
	}

	selector := strings.ToLower(sel.Text.Text)
	switch selector {
	case SelectorType:
		if rec.Type == "" {
			return []string{}, nil
		}
		return []string{rec.Type}, nil
	case SelectorTitle:
		return []string{rec.Title}, nil
	case SelectorNotes:
		if rec.Notes == "" {
			return []string{}, nil
		}
		return []string{rec.Notes}, nil
	case SelectorFile:
		f, err := r.findFile(notation, rec, sel.Parameter.Text)
		if err != nil {
			return nil, err
		}
		data, err := f.Download(ctx)
		if err != nil {
			return nil, errors.NotationError{Notation: notation, Message: "file download failed", Err: err}
		}
		return []string{base64.URLEncoding.EncodeToString(data)}, nil
	}

	field, err := r.findField(notation, rec, selector, sel.Parameter.Text)
	if err != nil {
		return nil, err
	}

	return r.extractMulti(notation, field.Value, sel.Index1, sel.Index2)
}

// TryGetResults is the best-effort sibling of GetResults: any resolution
// error is logged and an empty list returned instead of propagating. Used
// by integrations that must degrade gracefully inside larger batch
// operations.
func (r *Resolver) TryGetResults(ctx context.Context, notation string) []string {
	results, err := r.GetResults(ctx, notation)
	if err != nil {
		r.logger.Error("notation resolution failed: %v", err)
		return []string{}
	}
	return results
}

// Base returns the record, selector, and parameter portion of a notation
// without index qualifiers. Callers that memoize resolutions key their
// cache by this value; the resolver itself never caches.
func Base(notation string) (string, error) {
	sections, err := parseNotation(notation, true)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if sections[0].IsPresent {
		b.WriteString(sections[0].Text.Raw)
	}
	b.WriteString(sections[1].Text.Raw)
	b.WriteByte('/')
	b.WriteString(sections[2].Text.Raw)
	if p := sections[2].Parameter; p != nil {
		b.WriteByte('/')
		b.WriteString(p.Raw)
	}
	return b.String(), nil
}

// lookupRecord narrows the visible record set to exactly one record.
//
// A record token matching the strict UID shape gets a targeted fetch
// first; records sharing that UID are folded into one before counting.
// When the targeted fetch yields nothing the entire visible set is
// fetched and filtered by exact title equality.
func (r *Resolver) lookupRecord(ctx context.Context, notation, token string) (*record.Record, error) {
	var candidates []*record.Record

	if uidPattern.MatchString(token) {
		recs, err := r.fetcher.Fetch(ctx, []string{token})
		if err != nil {
			return nil, errors.NotationError{Notation: notation, Message: "record fetch failed", Err: err}
		}
		for _, rec := range record.Dedupe(recs) {
			if rec.Uid == token {
				candidates = append(candidates, rec)
			}
		}
	}

	if len(candidates) == 0 {
		recs, err := r.fetcher.Fetch(ctx, nil)
		if err != nil {
			return nil, errors.NotationError{Notation: notation, Message: "record fetch failed", Err: err}
		}
		for _, rec := range record.Dedupe(recs) {
			if rec.Title == token {
				candidates = append(candidates, rec)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return nil, errors.Notationf(notation, "no records match %q", token)
	case 1:
		return candidates[0], nil
	default:
		return nil, errors.Notationf(notation, "multiple records match %q", token)
	}
}

// findField locates the field addressed by a field/custom_field selector.
// Matching is by type or label, case-sensitive. Duplicate labels are
// tolerated; the first match wins.
func (r *Resolver) findField(notation string, rec *record.Record, selector, name string) (*record.Field, error) {
	var field *record.Field
	var ok bool
	if selector == SelectorField {
		field, ok = rec.StandardField(name)
	} else {
		field, ok = rec.CustomField(name)
	}
	if !ok {
		return nil, errors.Notationf(notation, "record %q has no %s matching %q", rec.Uid, selector, name)
	}
	return field, nil
}

// findFile locates the single attachment matching by name, title, or UID.
func (r *Resolver) findFile(notation string, rec *record.Record, name string) (*record.File, error) {
	matches := rec.FindFiles(name)
	switch len(matches) {
	case 0:
		return nil, errors.Notationf(notation, "record %q has no file matching %q", rec.Uid, name)
	case 1:
		return matches[0], nil
	default:
		return nil, errors.Notationf(notation, "record %q has multiple files matching %q", rec.Uid, name)
	}
}

// extractSingle applies index semantics for the single-value API.
func extractSingle(notation string, value []interface{}, index1, index2 *TokenPair) (interface{}, error) {
	// A first index synthesized from legacy single-bracket shorthand has an
	// empty Raw; legacy dictionary access always meant "first element's
	// property", so it is rewritten to an exact position here.
	if index1 != nil && index1.Text == "" && index1.Raw == "" && index2 != nil {
		index1 = &TokenPair{Text: "0"}
	}

	switch {
	case index1 == nil:
		if len(value) == 0 {
			return nil, errors.Notationf(notation, "value at index 0 does not exist")
		}
		return value[0], nil

	case index1.Text == "":
		if index2 != nil {
			return nil, errors.Notationf(notation, "second index can only be a dictionary key when the first index specifies an exact numeric position")
		}
		return value, nil

	default:
		n, err := strconv.Atoi(index1.Text)
		if err != nil || n < 0 || n >= len(value) {
			return nil, errors.Notationf(notation, "value at index %s does not exist", index1.Text)
		}
		elem := value[n]
		if index2 == nil {
			return elem, nil
		}
		dict, ok := elem.(map[string]interface{})
		if !ok {
			return nil, errors.Notationf(notation, "value at index %d is not a dictionary", n)
		}
		v, ok := dict[index2.Text]
		if !ok {
			return nil, errors.Notationf(notation, "dictionary key %q not found", index2.Text)
		}
		return v, nil
	}
}

// extractMulti applies index semantics for the multi-value API. Elements
// that are not dictionaries or lack the requested key are logged and
// skipped rather than failing the whole list.
func (r *Resolver) extractMulti(notation string, value []interface{}, index1, index2 *TokenPair) ([]string, error) {
	switch {
	case index1 == nil:
		return stringifyAll(value), nil

	case index1.Text == "":
		if index2 == nil {
			return stringifyAll(value), nil
		}
		results := make([]string, 0, len(value))
		for i, elem := range value {
			s, ok := extractKey(elem, index2.Text)
			if !ok {
				r.logger.Debug("notation %s: element %d has no key %q, skipping", notation, i, index2.Text)
				continue
			}
			results = append(results, s)
		}
		return results, nil

	default:
		n, err := strconv.Atoi(index1.Text)
		if err != nil || n < 0 || n >= len(value) {
			return nil, errors.Notationf(notation, "index out of bounds: %s", index1.Text)
		}
		if index2 == nil {
			return []string{stringify(value[n])}, nil
		}
		s, ok := extractKey(value[n], index2.Text)
		if !ok {
			r.logger.Debug("notation %s: element %d has no key %q, skipping", notation, n, index2.Text)
			return []string{}, nil
		}
		return []string{s}, nil
	}
}

func extractKey(elem interface{}, key string) (string, bool) {
	dict, ok := elem.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := dict[key]
	if !ok {
		return "", false
	}
	return stringify(v), true
}

func stringifyAll(value []interface{}) []string {
	results := make([]string, 0, len(value))
	for _, elem := range value {
		results = append(results, stringify(elem))
	}
	return results
}

// stringify returns strings as-is and everything else as JSON text.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
