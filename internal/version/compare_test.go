package version

import (
	"testing"

	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSchemaCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		supported     string
		recorded      string
		expectError   bool
		errorContains string
	}{
		{
			name:        "exact match",
			supported:   "1.0.0",
			recorded:    "1.0.0",
			expectError: false,
		},
		{
			name:        "recorded patch higher",
			supported:   "1.0.0",
			recorded:    "1.0.4",
			expectError: false,
		},
		{
			name:        "supported patch higher",
			supported:   "1.0.7",
			recorded:    "1.0.0",
			expectError: false,
		},
		{
			name:          "minor differs",
			supported:     "1.1.0",
			recorded:      "1.0.0",
			expectError:   true,
			errorContains: "minor version mismatch",
		},
		{
			name:          "major differs",
			supported:     "2.0.0",
			recorded:      "1.0.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:        "development build",
			supported:   "main",
			recorded:    "3.1.0",
			expectError: false,
		},
		{
			name:        "v prefix",
			supported:   "v1.0.0",
			recorded:    "1.0.2",
			expectError: false,
		},
		{
			name:          "invalid recorded version",
			supported:     "1.0.0",
			recorded:      "not-a-version",
			expectError:   true,
			errorContains: "invalid recorded schema version",
		},
		{
			name:          "empty recorded version",
			supported:     "1.0.0",
			recorded:      "",
			expectError:   true,
			errorContains: "invalid recorded schema version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchemaCompatibility(tt.supported, tt.recorded)

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeSchemaMismatch))
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignalSchemaVersionIsValid(t *testing.T) {
	assert.NoError(t, CheckSchemaCompatibility(SignalSchemaVersion, SignalSchemaVersion))
	assert.NotEmpty(t, GetVersion())
}
