// Package notation implements the path-like micro-language used to address
// a single value inside a secret record, and the resolver that evaluates it
// against a record fetch capability.
//
// A notation string has the shape
//
//	[keeper://]<record-uid-or-title>/<selector>[/<parameter>[<index1>][<index2>]]
//
// where selector is one of type, title, notes, field, custom_field, file.
// The reserved characters `/ [ ] \` inside free-text spans (record token,
// parameter) are escaped with a preceding backslash. The whole notation may
// alternatively be supplied URL-safe-base64 encoded; the encoded form is
// detected by the absence of a literal '/'.
package notation

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/systmms/vaultpath/internal/errors"
)

// Prefix is the optional, case-insensitive scheme prefix.
const Prefix = "keeper://"

// Section names, in parse order. The set is fixed.
const (
	SectionPrefix   = "prefix"
	SectionRecord   = "record"
	SectionSelector = "selector"
	SectionFooter   = "footer"
)

// Selector keywords. The set is closed; anything else is a parse error.
const (
	SelectorType        = "type"
	SelectorTitle       = "title"
	SelectorNotes       = "notes"
	SelectorField       = "field"
	SelectorCustomField = "custom_field"
	SelectorFile        = "file"
)

const (
	escapeChar   = '\\'
	escapedChars = "/[]\\"
)

// TokenPair is one parsed token: the unescaped value and the raw substring
// it came from, including escape characters and, for index groups, the
// surrounding brackets. Raw lengths drive span bookkeeping; a token
// synthesized during legacy-compatibility conversion has an empty Raw.
type TokenPair struct {
	Text string
	Raw  string
}

// Section is one parsed segment of a notation string. Sections are
// constructed fresh per parse call and immutable afterwards.
type Section struct {
	Section   string
	IsPresent bool
	StartPos  int
	EndPos    int
	Text      *TokenPair
	Parameter *TokenPair
	Index1    *TokenPair
	Index2    *TokenPair
}

// Parse converts a notation string into its four sections
// (prefix, record, selector, footer) and validates them structurally.
// Legacy single-bracket dictionary access (name[key]) is rejected here;
// the resolver entry points parse in legacy-compatibility mode instead.
func Parse(text string) ([]Section, error) {
	return parseNotation(text, false)
}

func parseNotation(notation string, legacy bool) ([]Section, error) {
	if notation == "" {
		return nil, errors.Notationf(notation, "notation is empty")
	}

	// Free-text spans legitimately need '/' escaped, so a string with no
	// raw slash at all is assumed to be the base64-encoded form.
	text := notation
	if !strings.Contains(text, "/") {
		decoded, err := decodeNotation(text)
		if err != nil {
			return nil, errors.Notationf(notation, "invalid format, expected plaintext URI or base64")
		}
		text = decoded
	}

	pos := 0

	prefix := Section{Section: SectionPrefix}
	if len(text) >= len(Prefix) && strings.EqualFold(text[:len(Prefix)], Prefix) {
		raw := text[:len(Prefix)]
		prefix.IsPresent = true
		prefix.StartPos = 0
		prefix.EndPos = len(Prefix) - 1
		prefix.Text = &TokenPair{Text: raw, Raw: raw}
		pos = len(Prefix)
	}

	rec, pos, err := parseFreeText(notation, text, pos, SectionRecord)
	if err != nil {
		return nil, err
	}

	sel, pos, err := parseSelector(notation, text, pos, legacy)
	if err != nil {
		return nil, err
	}

	footer := Section{Section: SectionFooter, StartPos: pos, EndPos: pos}
	if pos < len(text) {
		rest := text[pos:]
		footer.IsPresent = true
		footer.EndPos = len(text) - 1
		footer.Text = &TokenPair{Text: rest, Raw: rest}
	}

	sections := []Section{prefix, rec, sel, footer}
	if err := validate(notation, sections, legacy); err != nil {
		return nil, err
	}
	return sections, nil
}

// parseFreeText parses a plain section: text up to the next unescaped '/'.
// The terminating slash is consumed but belongs to neither side.
func parseFreeText(notation, text string, pos int, name string) (Section, int, error) {
	s := Section{Section: name, StartPos: pos, EndPos: pos}
	if pos >= len(text) {
		return s, pos, nil
	}

	token, next, err := scanEscaped(notation, text, pos, "/")
	if err != nil {
		return s, pos, err
	}
	if token.Raw != "" {
		s.IsPresent = true
		s.EndPos = next - 1
		s.Text = &token
	}
	if next < len(text) && text[next] == '/' {
		next++
	}
	return s, next, nil
}

// parseSelector parses the selector keyword and, when present, its
// parameter and up to two bracket-delimited index groups.
func parseSelector(notation, text string, pos int, legacy bool) (Section, int, error) {
	s, pos, err := parseFreeText(notation, text, pos, SectionSelector)
	if err != nil {
		return s, pos, err
	}
	if !s.IsPresent {
		return s, pos, nil
	}

	// Anything following the selector keyword is its parameter, whether or
	// not the selector kind allows one; validation sorts that out.
	if pos >= len(text) {
		return s, pos, nil
	}

	param, next, err := scanEscaped(notation, text, pos, "[/")
	if err != nil {
		return s, pos, err
	}
	if param.Raw != "" || next > pos {
		s.Parameter = &param
	}
	pos = next

	for g := 0; g < 2 && pos < len(text) && text[pos] == '['; g++ {
		index, n, err := scanBracketGroup(notation, text, pos)
		if err != nil {
			return s, pos, err
		}
		if g == 0 {
			s.Index1 = &index
		} else {
			s.Index2 = &index
		}
		pos = n
	}

	s.EndPos = pos - 1
	return s, pos, nil
}

// scanEscaped scans text from pos until an unescaped stop character,
// unescaping as it goes. The stop character is not consumed.
func scanEscaped(notation, text string, pos int, stopChars string) (TokenPair, int, error) {
	var token TokenPair
	i := pos
	for i < len(text) {
		c := text[i]
		if c == escapeChar {
			if i+1 >= len(text) || !strings.ContainsRune(escapedChars, rune(text[i+1])) {
				return token, i, errors.Notationf(notation, "invalid escape sequence at position %d", i)
			}
			token.Text += string(text[i+1])
			token.Raw += text[i : i+2]
			i += 2
			continue
		}
		if strings.ContainsRune(stopChars, rune(c)) {
			break
		}
		token.Text += string(c)
		token.Raw += string(c)
		i++
	}
	return token, i, nil
}

// scanBracketGroup scans one bracket group starting at an opening '['.
// The group must be closed with an unescaped ']'; a nested unescaped '[' is
// an error. Raw includes the delimiters.
func scanBracketGroup(notation, text string, pos int) (TokenPair, int, error) {
	token := TokenPair{Raw: "["}
	i := pos + 1
	for i < len(text) {
		c := text[i]
		if c == escapeChar {
			if i+1 >= len(text) || !strings.ContainsRune(escapedChars, rune(text[i+1])) {
				return token, i, errors.Notationf(notation, "invalid escape sequence at position %d", i)
			}
			token.Text += string(text[i+1])
			token.Raw += text[i : i+2]
			i += 2
			continue
		}
		switch c {
		case '[':
			return token, i, errors.Notationf(notation, "nested '[' inside index at position %d", i)
		case ']':
			token.Raw += "]"
			return token, i + 1, nil
		default:
			token.Text += string(c)
			token.Raw += string(c)
			i++
		}
	}
	return token, i, errors.Notationf(notation, "unclosed index bracket")
}

// validate applies the structural rules once all sections are parsed.
func validate(notation string, sections []Section, legacy bool) error {
	rec := &sections[1]
	sel := &sections[2]
	footer := &sections[3]

	if !rec.IsPresent || rec.Text == nil || rec.Text.Text == "" {
		return errors.Notationf(notation, "missing record UID or title")
	}
	if !sel.IsPresent || sel.Text == nil || sel.Text.Text == "" {
		return errors.Notationf(notation, "missing selector")
	}
	if footer.IsPresent {
		return errors.Notationf(notation, "extra characters after last section")
	}

	selector := strings.ToLower(sel.Text.Text)
	switch selector {
	case SelectorType, SelectorTitle, SelectorNotes:
		if sel.Parameter != nil || sel.Index1 != nil || sel.Index2 != nil {
			return errors.Notationf(notation, "%s selectors do not have parameters", selector)
		}
	case SelectorField, SelectorCustomField, SelectorFile:
		if sel.Parameter == nil || sel.Parameter.Text == "" {
			return errors.Notationf(notation, "%s selector requires a parameter", selector)
		}
		if selector == SelectorFile && (sel.Index1 != nil || sel.Index2 != nil) {
			return errors.Notationf(notation, "file selectors don't accept indexes")
		}
	default:
		return errors.Notationf(notation, "unknown selector %q", sel.Text.Text)
	}

	if sel.Index1 != nil && sel.Index1.Text != "" && !isDigits(sel.Index1.Text) {
		if !legacy || sel.Index2 != nil {
			return errors.Notationf(notation, "first index must be numeric or empty")
		}
		// Legacy single-bracket shorthand: name[key] means name[][key].
		// The synthesized first index has an empty Raw so the resolver can
		// tell a conversion apart from an explicit "[]".
		sel.Index2 = sel.Index1
		sel.Index1 = &TokenPair{}
	}
	if sel.Index2 != nil && sel.Index1 == nil {
		return errors.Notationf(notation, "second index requires a first index")
	}

	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// decodeNotation decodes the URL-safe-base64 form, with or without padding.
func decodeNotation(text string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(text)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(text)
		if err != nil {
			return "", err
		}
	}
	if !utf8.Valid(decoded) {
		return "", errors.Notationf(text, "decoded notation is not valid UTF-8")
	}
	return string(decoded), nil
}
