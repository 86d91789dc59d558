package engine

import (
	"encoding/json"
	"reflect"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StrategyEntry selects a builtin strategy and its configuration.
type StrategyEntry struct {
	Name string `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name,description=Builtin strategy name,enum=contraction,enum=volume_breakout"`
	// Config is the strategy's own YAML document; absent keys fall back to the strategy defaults
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty" jsonschema:"title=Config,description=Strategy configuration"`
}

// ConfigBytes re-encodes the strategy config so the strategy parses it on top of its defaults.
func (e StrategyEntry) ConfigBytes() ([]byte, error) {
	if len(e.Config) == 0 {
		return nil, nil
	}

	return yaml.Marshal(e.Config)
}

type BacktestEngineV1Config struct {
	Workers       int                        `yaml:"workers" json:"workers" validate:"gte=0" jsonschema:"title=Workers,description=Instruments evaluated concurrently; 0 uses the number of CPUs,minimum=0"`
	RunID         string                     `yaml:"run_id" json:"run_id" jsonschema:"title=Run ID,description=Identifier stamped on every signal; generated when empty"`
	DataPath      string                     `yaml:"data_path" json:"data_path" jsonschema:"title=Data Path,description=Parquet or CSV bar file used when no data source is set"`
	ResultsFolder string                     `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Directory receiving signals.parquet and summary.yaml"`
	StartTime     optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional inclusive start of the evaluated period"`
	EndTime       optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional inclusive end of the evaluated period"`
	Strategies    []StrategyEntry            `yaml:"strategies" json:"strategies" validate:"dive" jsonschema:"title=Strategies,description=Builtin strategies to run"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		Workers       int             `yaml:"workers"`
		RunID         string          `yaml:"run_id"`
		DataPath      string          `yaml:"data_path"`
		ResultsFolder string          `yaml:"results_folder"`
		StartTime     *time.Time      `yaml:"start_time"`
		EndTime       *time.Time      `yaml:"end_time"`
		Strategies    []StrategyEntry `yaml:"strategies"`
	}

	config := Config{
		Workers:       c.Workers,
		RunID:         c.RunID,
		DataPath:      c.DataPath,
		ResultsFolder: c.ResultsFolder,
		StartTime:     nil,
		EndTime:       nil,
		Strategies:    c.Strategies,
	}
	if err := value.Decode(&config); err != nil {
		return err
	}

	c.Workers = config.Workers
	c.RunID = config.RunID
	c.DataPath = config.DataPath
	c.ResultsFolder = config.ResultsFolder
	c.Strategies = config.Strategies

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// ParseConfig decodes a YAML engine configuration on top of EmptyConfig.
func ParseConfig(data string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()
	if err := yaml.Unmarshal([]byte(data), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks the struct tags and the time range.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// WorkerCount returns the effective size of the instrument pool.
func (c BacktestEngineV1Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}

	return c.Workers
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Workers:       0,
		RunID:         "",
		DataPath:      "",
		ResultsFolder: "",
		StartTime:     optional.None[time.Time](),
		EndTime:       optional.None[time.Time](),
		Strategies:    nil,
	}
}

// TestConfig returns a single-worker config over the given period.
func TestConfig(startTime time.Time, endTime time.Time, strategies ...StrategyEntry) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Workers:       1,
		RunID:         "test-run",
		DataPath:      "",
		ResultsFolder: "",
		StartTime:     optional.Some(startTime),
		EndTime:       optional.Some(endTime),
		Strategies:    strategies,
	}
}
