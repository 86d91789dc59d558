package engine

import (
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0, config.Workers)
	suite.Empty(config.RunID)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Empty(config.Strategies)
	suite.Equal(runtime.NumCPU(), config.WorkerCount())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig(startTime, endTime, StrategyEntry{Name: strategy.ContractionStrategyName})

	suite.Equal(1, config.WorkerCount())
	suite.Equal("test-run", config.RunID)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.Len(config.Strategies, 1)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
workers: 3
run_id: nightly
results_folder: /tmp/results
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
strategies:
  - name: contraction
    config:
      extrema_radius: 5
      ma_periods: [20, 50]
  - name: volume_breakout
`

	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte(yamlData), &config)

	suite.NoError(err)
	suite.Equal(3, config.Workers)
	suite.Equal("nightly", config.RunID)
	suite.Equal("/tmp/results", config.ResultsFolder)
	suite.Equal(2023, config.StartTime.Unwrap().Year())
	suite.Equal(time.December, config.EndTime.Unwrap().Month())
	suite.Require().Len(config.Strategies, 2)
	suite.Equal("contraction", config.Strategies[0].Name)
	suite.Equal(5, config.Strategies[0].Config["extrema_radius"])
	suite.Empty(config.Strategies[1].Config)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLWithoutTimes() {
	var config BacktestEngineV1Config
	err := yaml.Unmarshal([]byte("workers: 2\n"), &config)

	suite.NoError(err)
	suite.Equal(2, config.Workers)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestStrategyConfigBytesRoundTrip() {
	config, err := ParseConfig(`
strategies:
  - name: contraction
    config:
      extrema_radius: 5
      ma_periods: [20, 50]
`)
	suite.Require().NoError(err)

	content, err := config.Strategies[0].ConfigBytes()
	suite.Require().NoError(err)

	parsed, err := strategy.ParseContractionConfig(content)
	suite.Require().NoError(err)
	suite.Equal(5, parsed.ExtremaRadius)
	suite.Equal([]int{20, 50}, parsed.MAPeriods)
	suite.Equal(strategy.DefaultContractionConfig().BuyThreshold, parsed.BuyThreshold)

	empty, err := StrategyEntry{Name: "contraction"}.ConfigBytes()
	suite.NoError(err)
	suite.Nil(empty)
}

func (suite *ConfigTestSuite) TestParseConfigRejectsInvalid() {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "negative workers", yaml: "workers: -1\n"},
		{name: "end before start", yaml: "start_time: 2024-02-01T00:00:00Z\nend_time: 2024-01-01T00:00:00Z\n"},
		{name: "strategy without name", yaml: "strategies:\n  - config: {}\n"},
		{name: "malformed yaml", yaml: "workers: [1\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := ParseConfig(tc.yaml)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
		})
	}
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]any
	err = json.Unmarshal([]byte(schemaJSON), &result)
	suite.NoError(err)
	suite.Equal("backtest-engine-v1-config", result["title"])

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "workers")
	suite.Contains(properties, "strategies")

	startTime, ok := properties["start_time"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}
