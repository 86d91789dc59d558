package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// CheckSchemaCompatibility checks whether records written with schema version
// recorded can be read by a reader that understands schema version supported.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
//
// Examples:
//   - Supported 1.0.0, Recorded 1.0.3 -> OK (patch differs)
//   - Supported 1.1.0, Recorded 1.0.0 -> ERROR (minor differs)
//   - Supported 2.0.0, Recorded 1.0.0 -> ERROR (major differs)
func CheckSchemaCompatibility(supported, recorded string) error {
	supported = strings.TrimPrefix(supported, "v")
	recorded = strings.TrimPrefix(recorded, "v")

	if supported == "main" || recorded == "main" {
		return nil
	}

	supportedSemver, err := semver.NewVersion(supported)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeSchemaMismatch, err, "invalid supported schema version '%s'", supported)
	}

	recordedSemver, err := semver.NewVersion(recorded)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeSchemaMismatch, err, "invalid recorded schema version '%s'", recorded)
	}

	if supportedSemver.Major() != recordedSemver.Major() {
		return errors.Newf(errors.ErrCodeSchemaMismatch, "major version mismatch: reader supports %d.x.x but record is %d.x.x",
			supportedSemver.Major(), recordedSemver.Major())
	}

	if supportedSemver.Minor() != recordedSemver.Minor() {
		return errors.Newf(errors.ErrCodeSchemaMismatch, "minor version mismatch: reader supports %d.%d.x but record is %d.%d.x",
			supportedSemver.Major(), supportedSemver.Minor(),
			recordedSemver.Major(), recordedSemver.Minor())
	}

	return nil
}
