package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"domain asset error", &assetMissing{path: "hero.jpg"}, 9},
		{"render", NewError(CategoryRender, "template").Build(), 11},
		{"canceled", fmt.Errorf("build: %w", context.Canceled), 130},
		{"unclassified", errors.New("boom"), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing site title").WithContext("file", "sitebuilder.yaml").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: missing site title\n", out.String())
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "file=sitebuilder.yaml")
}

func TestCLIErrorAdapter_FormatErrorShowsCause(t *testing.T) {
	err := WrapError(errors.New("paths.output \".\" overlaps paths.assets"), CategoryConfig, "output directory overlaps build inputs").Build()

	assert.Equal(t, `Error: output directory overlaps build inputs: paths.output "." overlaps paths.assets`,
		NewCLIErrorAdapter(false, nil).FormatError(err))
	assert.Equal(t, "Error: "+err.Error(), NewCLIErrorAdapter(true, nil).FormatError(err))
}
