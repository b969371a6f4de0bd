package etl

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySchema_IdentityConfig(t *testing.T) {
	in := Collection{
		RecordOf("name", "A", "age", float64(30), "vip", true),
		RecordOf("name", "B", "age", float64(41.5), "vip", false),
	}
	schema := InferSchema(in)

	out, warns := ApplySchema(in, schema)
	assert.Empty(t, warns)
	require.Len(t, out, len(in))
	for i := range in {
		for _, k := range in[i].Keys() {
			want, _ := in[i].String(k)
			got, _ := out[i].String(k)
			assert.Equal(t, want, got, "record %d key %s", i, k)
		}
	}
}

func TestApplySchema_SuffixAndMask(t *testing.T) {
	in := Collection{RecordOf("price", float64(120), "phone", "0123456789", "extra", float64(7))}
	schema := &Schema{Fields: []Field{
		{Key: "price", Suffix: "USD", Mark: MarkUnset},
		{Key: "phone", Suffix: "", Mark: MarkHidePhone},
	}}

	out, warns := ApplySchema(in, schema)
	assert.Empty(t, warns)

	price, _ := out[0].Get("price")
	assert.Equal(t, "120 USD", price)
	phone, _ := out[0].Get("phone")
	assert.Equal(t, "0123***789", phone)

	// keys outside the schema keep their raw value
	extra, _ := out[0].Get("extra")
	assert.Equal(t, float64(7), extra)
}

func TestApplySchema_DoesNotMutateInput(t *testing.T) {
	in := Collection{RecordOf("name", "A")}
	schema := &Schema{Fields: []Field{{Key: "name", Suffix: "Jr.", Mark: MarkUnset}}}

	out, _ := ApplySchema(in, schema)
	v, _ := in[0].Get("name")
	assert.Equal(t, "A", v)
	v, _ = out[0].Get("name")
	assert.Equal(t, "A Jr.", v)
}

func TestApplySchema_UnknownMarkFallsBack(t *testing.T) {
	in := Collection{RecordOf("name", "Alice")}
	schema := &Schema{Fields: []Field{{Key: "name", Mark: "NO_SUCH_MARK"}}}

	out, warns := ApplySchema(in, schema)
	require.Len(t, warns, 1)
	assert.Equal(t, WarnUnknownMark, warns[0].Kind)
	v, _ := out[0].Get("name")
	assert.Equal(t, "Alice", v)
}

func TestHidePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0123456789", "0123***789"},
		{"0123456", "0123***"},
		{"012345", "0123**"},
		{"01234", "0123*"},
		{"0123", "0123"},
		{"", ""},
		{"số 0912345678", "số 0***345678"},
	}
	for _, tt := range tests {
		got := HidePhone(tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
		assert.Equal(t, utf8.RuneCountInString(tt.in), utf8.RuneCountInString(got))
	}
}

func TestMaskRegistry(t *testing.T) {
	RegisterMask("TEST_UPPER_MARK", func(s string) string { return s + "!" })
	t.Cleanup(func() {
		maskMu.Lock()
		delete(maskRegs, "TEST_UPPER_MARK")
		maskMu.Unlock()
	})

	kinds := ListMasks()
	require.NotEmpty(t, kinds)
	assert.Equal(t, MarkUnset, kinds[0])
	assert.Contains(t, kinds, MarkHidePhone)
	assert.Contains(t, kinds, MarkKind("TEST_UPPER_MARK"))

	fn, err := GetMask("TEST_UPPER_MARK")
	require.NoError(t, err)
	assert.Equal(t, "a!", fn("a"))

	_, err = GetMask("MISSING")
	assert.Error(t, err)
}
