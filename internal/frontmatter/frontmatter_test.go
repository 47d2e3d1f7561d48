package frontmatter

import (
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		fm      string
		body    string
		had     bool
		wantErr error
	}{
		{"no front matter", "# Title\n", "", "# Title\n", false, nil},
		{"lf", "---\ntitle: x\n---\nbody\n", "title: x\n", "body\n", true, nil},
		{"crlf", "---\r\ntitle: x\r\n---\r\nbody\r\n", "title: x\r\n", "body\r\n", true, nil},
		{"empty", "---\n---\nbody", "", "body", true, nil},
		{"closing at eof", "---\ntitle: x\n---", "title: x\n", "", true, nil},
		{"unterminated", "---\ntitle: x\nbody\n", "", "", false, ErrMissingClosingDelimiter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tt.in))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.had, had)
			assert.Equal(t, tt.fm, string(fm))
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Hello\ndraft: false\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", fields["title"])
	assert.Equal(t, false, fields["draft"])

	fields, err = ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = ParseYAML([]byte("title: [unclosed"))
	require.Error(t, err)
}

func TestSerializeYAMLSortsKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"title": "Post",
		"draft": false,
		"count": int64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "count: 3\ndraft: false\ntitle: Post\n", string(out))

	out, err = SerializeYAML(map[string]any{"date": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "2024-05-01")

	_, err = SerializeYAML(map[string]any{"tags": []string{"a"}})
	require.Error(t, err)
}

func TestFingerprintIgnoresExistingField(t *testing.T) {
	fields := map[string]any{"title": "Post"}
	fp1, err := Fingerprint(fields, []byte("body"))
	require.NoError(t, err)
	require.NotEmpty(t, fp1)

	fields[mdfp.FingerprintField] = fp1
	fp2, err := Fingerprint(fields, []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	fp3, err := Fingerprint(fields, []byte("changed"))
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}
