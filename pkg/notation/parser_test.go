package notation

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSections tests structural decomposition of valid notations
func TestParseSections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		notation  string
		prefix    bool
		record    string
		selector  string
		parameter string
		index1    *string
		index2    *string
	}{
		{
			name:     "uid with prefix",
			notation: "keeper://RecordUid1AAAAAAAAAAAA/field/login",
			prefix:   true, record: "RecordUid1AAAAAAAAAAAA",
			selector: "field", parameter: "login",
		},
		{
			name:     "prefix is case-insensitive",
			notation: "Keeper://rec/field/login",
			prefix:   true, record: "rec",
			selector: "field", parameter: "login",
		},
		{
			name:     "title without prefix",
			notation: "My Record/field/password",
			record:   "My Record", selector: "field", parameter: "password",
		},
		{
			name:     "short selector",
			notation: "rec/title",
			record:   "rec", selector: "title",
		},
		{
			name:     "numeric index",
			notation: "rec/custom_field/phone[1]",
			record:   "rec", selector: "custom_field", parameter: "phone",
			index1: strPtr("1"),
		},
		{
			name:     "empty index means all",
			notation: "rec/field/phone[]",
			record:   "rec", selector: "field", parameter: "phone",
			index1: strPtr(""),
		},
		{
			name:     "index and dictionary key",
			notation: "rec/custom_field/phone[0][number]",
			record:   "rec", selector: "custom_field", parameter: "phone",
			index1: strPtr("0"), index2: strPtr("number"),
		},
		{
			name:     "all elements with dictionary key",
			notation: "rec/field/phone[][ext]",
			record:   "rec", selector: "field", parameter: "phone",
			index1: strPtr(""), index2: strPtr("ext"),
		},
		{
			name:     "escaped slash in record token",
			notation: `a\/b/field/c`,
			record:   "a/b", selector: "field", parameter: "c",
		},
		{
			name:     "escaped brackets in parameter",
			notation: `rec/field/my \[label\]`,
			record:   "rec", selector: "field", parameter: "my [label]",
		},
		{
			name:     "escaped backslash",
			notation: `re\\c/field/x`,
			record:   `re\c`, selector: "field", parameter: "x",
		},
		{
			name:     "escaped bracket inside dictionary key",
			notation: `rec/field/phone[0][a\]b]`,
			record:   "rec", selector: "field", parameter: "phone",
			index1: strPtr("0"), index2: strPtr("a]b"),
		},
		{
			name:     "file selector",
			notation: "rec/file/report.pdf",
			record:   "rec", selector: "file", parameter: "report.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sections, err := Parse(tt.notation)
			require.NoError(t, err)
			require.Len(t, sections, 4)

			prefix, rec, sel, footer := sections[0], sections[1], sections[2], sections[3]
			assert.Equal(t, tt.prefix, prefix.IsPresent)
			assert.True(t, rec.IsPresent)
			assert.Equal(t, tt.record, rec.Text.Text)
			assert.True(t, sel.IsPresent)
			assert.Equal(t, tt.selector, sel.Text.Text)
			assert.False(t, footer.IsPresent)

			if tt.parameter != "" {
				require.NotNil(t, sel.Parameter)
				assert.Equal(t, tt.parameter, sel.Parameter.Text)
			} else {
				assert.Nil(t, sel.Parameter)
			}

			if tt.index1 != nil {
				require.NotNil(t, sel.Index1)
				assert.Equal(t, *tt.index1, sel.Index1.Text)
			} else {
				assert.Nil(t, sel.Index1)
			}
			if tt.index2 != nil {
				require.NotNil(t, sel.Index2)
				assert.Equal(t, *tt.index2, sel.Index2.Text)
			} else {
				assert.Nil(t, sel.Index2)
			}
		})
	}
}

// TestParseErrors tests the structural error taxonomy
func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		notation string
		errMsg   string
	}{
		{
			name:     "empty notation",
			notation: "",
			errMsg:   "notation is empty",
		},
		{
			name:     "not base64 and no slash",
			notation: "IM_BAD!!!!",
			errMsg:   "invalid format, expected plaintext URI or base64",
		},
		{
			name:     "missing record",
			notation: "keeper:///field/login",
			errMsg:   "missing record UID or title",
		},
		{
			name:     "missing selector",
			notation: "rec/",
			errMsg:   "missing selector",
		},
		{
			name:     "trailing footer text",
			notation: "rec/field/name[0]/extra",
			errMsg:   "extra characters after last section",
		},
		{
			name:     "unknown selector",
			notation: "rec/fields/login",
			errMsg:   "unknown selector",
		},
		{
			name:     "type with parameter",
			notation: "rec/type/login",
			errMsg:   "type selectors do not have parameters",
		},
		{
			name:     "notes with parameter",
			notation: "rec/notes/x",
			errMsg:   "notes selectors do not have parameters",
		},
		{
			name:     "field without parameter",
			notation: "rec/field",
			errMsg:   "field selector requires a parameter",
		},
		{
			name:     "custom_field without parameter",
			notation: "rec/custom_field/",
			errMsg:   "custom_field selector requires a parameter",
		},
		{
			name:     "file with index",
			notation: "rec/file/report.pdf[0]",
			errMsg:   "file selectors don't accept indexes",
		},
		{
			name:     "file with empty index",
			notation: "rec/file/report.pdf[]",
			errMsg:   "file selectors don't accept indexes",
		},
		{
			name:     "unclosed bracket",
			notation: "rec/field/phone[0",
			errMsg:   "unclosed index bracket",
		},
		{
			name:     "nested bracket",
			notation: "rec/field/phone[[0]]",
			errMsg:   "nested '['",
		},
		{
			name:     "unterminated escape",
			notation: `rec/field/name\`,
			errMsg:   "invalid escape sequence",
		},
		{
			name:     "escape of non-reserved character",
			notation: `rec/field/na\me`,
			errMsg:   "invalid escape sequence",
		},
		{
			name:     "non-numeric first index in strict mode",
			notation: "rec/field/name[middle]",
			errMsg:   "first index must be numeric or empty",
		},
		{
			name:     "non-numeric first index with second index",
			notation: "rec/field/name[middle][x]",
			errMsg:   "first index must be numeric or empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.notation)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// TestParseEscapingRawSpan verifies the raw twin keeps escape characters
func TestParseEscapingRawSpan(t *testing.T) {
	t.Parallel()

	sections, err := Parse(`a\/b/field/c`)
	require.NoError(t, err)

	rec := sections[1]
	assert.Equal(t, "a/b", rec.Text.Text)
	assert.Equal(t, `a\/b`, rec.Text.Raw)
}

func TestParseBase64Form(t *testing.T) {
	t.Parallel()

	plain := "keeper://RecordUid1AAAAAAAAAAAA/field/login"
	encoded := base64.URLEncoding.EncodeToString([]byte(plain))

	sections, err := Parse(encoded)
	require.NoError(t, err)
	assert.True(t, sections[0].IsPresent)
	assert.Equal(t, "RecordUid1AAAAAAAAAAAA", sections[1].Text.Text)
	assert.Equal(t, "field", sections[2].Text.Text)
	assert.Equal(t, "login", sections[2].Parameter.Text)

	// Unpadded form decodes as well.
	sections, err = Parse(base64.RawURLEncoding.EncodeToString([]byte(plain)))
	require.NoError(t, err)
	assert.Equal(t, "login", sections[2].Parameter.Text)
}

// TestParseLegacyConversion verifies that legacy mode rewrites
// single-bracket dictionary access into the two-bracket form, with an
// empty raw span marking the synthesized first index.
func TestParseLegacyConversion(t *testing.T) {
	t.Parallel()

	sections, err := parseNotation("rec/custom_field/name[middle]", true)
	require.NoError(t, err)

	sel := sections[2]
	require.NotNil(t, sel.Index1)
	require.NotNil(t, sel.Index2)
	assert.Equal(t, "", sel.Index1.Text)
	assert.Equal(t, "", sel.Index1.Raw)
	assert.Equal(t, "middle", sel.Index2.Text)

	// The explicit two-bracket spelling parses to the same token values but
	// keeps its raw "[]" span.
	explicit, err := parseNotation("rec/custom_field/name[][middle]", true)
	require.NoError(t, err)
	exSel := explicit[2]
	assert.Equal(t, sel.Index1.Text, exSel.Index1.Text)
	assert.Equal(t, "[]", exSel.Index1.Raw)
	assert.Equal(t, sel.Index2.Text, exSel.Index2.Text)
}

func TestParseImmutableAcrossCalls(t *testing.T) {
	t.Parallel()

	first, err := Parse("rec/field/phone[0][number]")
	require.NoError(t, err)
	second, err := Parse("rec/field/phone[0][number]")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func strPtr(s string) *string { return &s }
