package datasource

import (
	"slices"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// ValidateBarOrder checks that timestamps strictly increase. Duplicates and
// out-of-order bars are rejected rather than silently re-sorted.
func ValidateBarOrder(instrumentID string, bars []types.Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidBarOrder,
				"instrument %s: bar %d at %s does not follow bar %d at %s",
				instrumentID, i, bars[i].Time.Format(time.RFC3339), i-1, bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// MissingColumns returns the required bar columns absent from columns, compared case-insensitively.
func MissingColumns(columns []string) []string {
	present := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		present[strings.ToLower(column)] = struct{}{}
	}

	missing := make([]string, 0)
	for _, required := range types.BarColumns {
		if _, ok := present[required]; !ok {
			missing = append(missing, required)
		}
	}

	slices.Sort(missing)

	return missing
}

func withinBounds(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
