package record

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelOrType(t *testing.T) {
	t.Parallel()

	labeled := Field{Type: "text", Label: "cardholder"}
	assert.Equal(t, "cardholder", labeled.LabelOrType())

	unlabeled := Field{Type: "pinCode"}
	assert.Equal(t, "pinCode", unlabeled.LabelOrType())
}

func TestFieldAccessors(t *testing.T) {
	t.Parallel()

	rec := &Record{
		Uid: "RecordUid1AAAAAAAAAAAA",
		Fields: []Field{
			{Type: "login", Value: []interface{}{"alice"}},
			{Type: "password", Value: []interface{}{"hunter2"}},
		},
		Custom: []Field{
			{Type: "text", Label: "note", Value: []interface{}{"first"}},
			{Type: "text", Label: "note", Value: []interface{}{"second"}},
		},
	}

	t.Run("match by type", func(t *testing.T) {
		f, ok := rec.StandardField("login")
		require.True(t, ok)
		assert.Equal(t, []interface{}{"alice"}, f.Value)
	})

	t.Run("match by label", func(t *testing.T) {
		f, ok := rec.CustomField("note")
		require.True(t, ok)
		assert.Equal(t, []interface{}{"first"}, f.Value, "first match wins")
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		_, ok := rec.StandardField("Login")
		assert.False(t, ok)
	})

	t.Run("standard and custom lists are separate", func(t *testing.T) {
		_, ok := rec.StandardField("note")
		assert.False(t, ok)
		_, ok = rec.CustomField("login")
		assert.False(t, ok)
	})

	t.Run("all matches", func(t *testing.T) {
		assert.Len(t, rec.CustomFields("note"), 2)
		assert.Len(t, rec.StandardFields("login"), 1)
		assert.Empty(t, rec.StandardFields("url"))
	})
}

func TestFileMatchesAndDownload(t *testing.T) {
	t.Parallel()

	f := &File{Uid: "FileUidAAAAAAAAAAAAAAA", Name: "report.pdf", Title: "Q3 Report"}
	assert.True(t, f.Matches("report.pdf"))
	assert.True(t, f.Matches("Q3 Report"))
	assert.True(t, f.Matches("FileUidAAAAAAAAAAAAAAA"))
	assert.False(t, f.Matches("Report.pdf"))

	_, err := f.Download(context.Background())
	require.Error(t, err, "no download func installed")

	f.SetDownloadFunc(func(ctx context.Context) ([]byte, error) {
		return []byte("content"), nil
	})
	data, err := f.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestFindFiles(t *testing.T) {
	t.Parallel()

	rec := &Record{Files: []*File{
		{Uid: "FileUidAAAAAAAAAAAAAAA", Name: "a.txt"},
		{Uid: "FileUidBAAAAAAAAAAAAAA", Name: "dup.txt"},
		{Uid: "FileUidCAAAAAAAAAAAAAA", Name: "dup.txt"},
	}}

	assert.Len(t, rec.FindFiles("a.txt"), 1)
	assert.Len(t, rec.FindFiles("dup.txt"), 2)
	assert.Empty(t, rec.FindFiles("missing.txt"))
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	a1 := &Record{Uid: "RecordUid1AAAAAAAAAAAA", Title: "A"}
	a2 := &Record{Uid: "RecordUid1AAAAAAAAAAAA", Title: "A (alias)"}
	b := &Record{Uid: "RecordUid2AAAAAAAAAAAA", Title: "B"}

	out := Dedupe([]*Record{a1, a2, b, nil})
	require.Len(t, out, 2)
	assert.Same(t, a1, out[0], "first occurrence kept")
	assert.Same(t, b, out[1])
}

func TestFieldTypeRegistry(t *testing.T) {
	t.Parallel()

	d, ok := DescriptorFor("cardRef")
	require.True(t, ok)
	assert.Equal(t, KindReference, d.Kind)
	assert.Equal(t, []string{"paymentCard", "text", "pinCode", "addressRef"}, d.InflateWith)

	d, ok = DescriptorFor("addressRef")
	require.True(t, ok)
	assert.Equal(t, []string{"address"}, d.InflateWith)

	d, ok = DescriptorFor("phone")
	require.True(t, ok)
	assert.Equal(t, KindObject, d.Kind)
	assert.Empty(t, d.InflateWith)

	_, ok = DescriptorFor("notAType")
	assert.False(t, ok)

	assert.True(t, IsReference("cardRef"))
	assert.False(t, IsReference("fileRef"), "file refs resolve through the file selector, not inflation")
	assert.False(t, IsReference("notAType"))
}
