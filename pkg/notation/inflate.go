package notation

import (
	"context"
	"fmt"

	"github.com/systmms/vaultpath/internal/errors"
	"github.com/systmms/vaultpath/pkg/record"
)

// defaultInflateDepth bounds reference inflation recursion. A card
// reference pulling in an address reference is depth 2; anything deeper is
// either a pathological record graph or a reference cycle, and resolution
// fails rather than recursing forever.
const defaultInflateDepth = 3

// inflateValue replaces a reference field's UID list with the referenced
// records' merged sub-fields.
//
// For each referenced record, the sub-field types listed in the registry
// for refType contribute in order: a single contribution is returned raw;
// multiple contributions merge into a dictionary keyed by each field's
// label-or-type, with dict-shaped contributions folding their entries in
// directly. A missing referenced record or sub-field is logged and skipped.
func (r *Resolver) inflateValue(ctx context.Context, notation, refType string, value []interface{}, depth int) ([]interface{}, error) {
	desc, ok := record.DescriptorFor(refType)
	if !ok || desc.Kind != record.KindReference {
		return value, nil
	}
	if depth <= 0 {
		return nil, errors.Notationf(notation, "reference inflation exceeded maximum depth resolving %s", refType)
	}

	out := make([]interface{}, 0, len(value))
	for _, v := range value {
		uid, ok := v.(string)
		if !ok {
			r.logger.Warn("reference field %s holds a non-UID value %v, skipping", refType, v)
			continue
		}

		rec, err := r.fetchByUid(ctx, notation, uid)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			r.logger.Warn("referenced record %s not found, skipping", uid)
			continue
		}

		merged := make(map[string]interface{})
		var first interface{}
		contributions := 0

		for _, sub := range desc.InflateWith {
			field, ok := rec.StandardField(sub)
			if !ok || len(field.Value) == 0 {
				r.logger.Debug("referenced record %s has no %s field, skipping", uid, sub)
				continue
			}

			var fv interface{}
			if record.IsReference(sub) {
				inner, err := r.inflateValue(ctx, notation, sub, field.Value, depth-1)
				if err != nil {
					return nil, err
				}
				if len(inner) == 0 {
					continue
				}
				fv = inner[0]
			} else {
				fv = field.Value[0]
			}

			contributions++
			if contributions == 1 {
				first = fv
			}
			if dict, ok := fv.(map[string]interface{}); ok {
				for k, val := range dict {
					merged[k] = val
				}
			} else {
				merged[field.LabelOrType()] = fv
			}
		}

		switch contributions {
		case 0:
		case 1:
			out = append(out, first)
		default:
			out = append(out, merged)
		}
	}

	return out, nil
}

// fetchByUid fetches a single referenced record, returning nil when the
// UID resolves to nothing.
func (r *Resolver) fetchByUid(ctx context.Context, notation, uid string) (*record.Record, error) {
	recs, err := r.fetcher.Fetch(ctx, []string{uid})
	if err != nil {
		return nil, errors.NotationError{
			Notation: notation,
			Message:  fmt.Sprintf("fetch of referenced record %s failed", uid),
			Err:      err,
		}
	}
	for _, rec := range record.Dedupe(recs) {
		if rec.Uid == uid {
			return rec, nil
		}
	}
	return nil, nil
}
