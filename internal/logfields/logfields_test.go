package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Key drift would break log ingestion schemas.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{BuildID("b1"), KeyBuildID, "b1"},
		{Stage("resolving"), KeyStage, "resolving"},
		{State("failed"), KeyState, "failed"},
		{Page("home"), KeyPage, "home"},
		{RecordType("social"), KeyRecordType, "social"},
		{Record("Github"), KeyRecord, "Github"},
		{Asset("images/logo.png"), KeyAsset, "images/logo.png"},
		{Path("/tmp/x"), KeyPath, "/tmp/x"},
		{File("about.md"), KeyFile, "about.md"},
		{Outcome("success"), KeyOutcome, "success"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.attr.Key)
		assert.Equal(t, tc.val, tc.attr.Value.String())
	}
	assert.Equal(t, KeyCount, Count(3).Key)
	assert.Equal(t, KeyDurationMS, DurationMS(1.5).Key)
}

func TestErrorHelper(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
