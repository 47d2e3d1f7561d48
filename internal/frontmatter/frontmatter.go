// Package frontmatter splits YAML front matter from markdown documents and
// computes canonical record fingerprints.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML front matter (`---` delimited) from the markdown body.
// CRLF documents are accepted. If the document does not start with a delimiter,
// had is false and body is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	nl := []byte("\n")
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = []byte("\r\n")
	}
	open := append([]byte("---"), nl...)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := append(append([]byte{}, nl...), open...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without trailing newline.
		tail := append(append([]byte{}, nl...), []byte("---")...)
		if bytes.HasSuffix(rest, tail) {
			return rest[:len(rest)-len(tail)+len(nl)], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(fm)) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
