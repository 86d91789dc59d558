package journal

import (
	"encoding/json"
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/internal/version"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// SignalRecord is the stable output schema of a SignalEvent. Downstream consumers
// key lookups on run_id + timestamp + instrument_id.
type SignalRecord struct {
	Timestamp         time.Time          `json:"timestamp"`
	InstrumentID      string             `json:"instrument_id"`
	SignalType        types.SignalType   `json:"signal_type"`
	StrategyName      string             `json:"strategy_name"`
	Price             float64            `json:"price"`
	IndicatorValues   map[string]float64 `json:"indicator_values"`
	TriggerConditions []string           `json:"trigger_conditions"`
	RunID             string             `json:"run_id"`
	SchemaVersion     string             `json:"schema_version"`
}

// NewSignalRecord converts an event to its output record.
func NewSignalRecord(event types.SignalEvent) SignalRecord {
	clone := event.Clone()

	values := clone.IndicatorValues
	if values == nil {
		values = map[string]float64{}
	}

	conditions := clone.TriggerConditions
	if conditions == nil {
		conditions = []string{}
	}

	return SignalRecord{
		Timestamp:         clone.Time.UTC(),
		InstrumentID:      clone.InstrumentID,
		SignalType:        clone.Type,
		StrategyName:      clone.StrategyName,
		Price:             clone.Price,
		IndicatorValues:   values,
		TriggerConditions: conditions,
		RunID:             clone.RunID,
		SchemaVersion:     version.SignalSchemaVersion,
	}
}

// Event converts the record back to a SignalEvent.
func (r SignalRecord) Event() types.SignalEvent {
	return types.SignalEvent{
		Time:              r.Timestamp,
		InstrumentID:      r.InstrumentID,
		Type:              r.SignalType,
		StrategyName:      r.StrategyName,
		Price:             r.Price,
		IndicatorValues:   r.IndicatorValues,
		TriggerConditions: r.TriggerConditions,
		RunID:             r.RunID,
	}
}

// EncodeSignalEvent serializes an event to the JSON output schema.
func EncodeSignalEvent(event types.SignalEvent) ([]byte, error) {
	data, err := json.Marshal(NewSignalRecord(event))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to encode signal event", err)
	}

	return data, nil
}

// DecodeSignalEvent parses a JSON output record. Records written with an
// incompatible schema version are rejected.
func DecodeSignalEvent(data []byte) (types.SignalEvent, error) {
	var record SignalRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return types.SignalEvent{}, errors.Wrap(errors.ErrCodeJournalReadFailed, "failed to decode signal event", err)
	}

	if err := version.CheckSchemaCompatibility(version.SignalSchemaVersion, record.SchemaVersion); err != nil {
		return types.SignalEvent{}, err
	}

	if record.SignalType != types.SignalTypeBuy && record.SignalType != types.SignalTypeSell {
		return types.SignalEvent{}, errors.Newf(errors.ErrCodeJournalReadFailed, "unknown signal type %q", record.SignalType)
	}

	return record.Event(), nil
}
