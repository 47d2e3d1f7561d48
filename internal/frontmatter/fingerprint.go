package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint computes the canonical mdfp fingerprint of a record.
// An existing fingerprint field is excluded so the value is stable once written back.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}
	serialized, err := SerializeYAML(forHash)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(serialized), "\n"), string(body)), nil
}
