package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	configDir        = "./config"
	engineSchemaName = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
)

// sampleStrategy mirrors engine.StrategyEntry with a typed config so the
// sample document lists every key with its default.
type sampleStrategy struct {
	Name   string `yaml:"name"`
	Config any    `yaml:"config"`
}

type sampleConfig struct {
	Workers       int              `yaml:"workers"`
	DataPath      string           `yaml:"data_path"`
	ResultsFolder string           `yaml:"results_folder"`
	Strategies    []sampleStrategy `yaml:"strategies"`
}

func defaultSampleConfig() sampleConfig {
	return sampleConfig{
		Workers:       0,
		DataPath:      "data/bars.parquet",
		ResultsFolder: "results",
		Strategies: []sampleStrategy{
			{Name: strategy.ContractionStrategyName, Config: strategy.DefaultContractionConfig()},
			{Name: strategy.VolumeBreakoutStrategyName, Config: strategy.DefaultVolumeBreakoutConfig()},
		},
	}
}

func main() {
	if err := generate(configDir); err != nil {
		log.Fatal(err)
	}
}

// generate writes the engine schema, one schema per built-in strategy and a
// sample engine config into dir. An existing sample config is left untouched.
func generate(dir string) error {
	config := engine.EmptyConfig()
	schemaPath := filepath.Join(dir, engineSchemaName)
	sampleConfigPath := filepath.Join(dir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		return err
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		return err
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	for _, name := range strategy.BuiltinStrategies() {
		path := filepath.Join(dir, strategySchemaName(name))
		if err := generateStrategySchemaFile(name, path); err != nil {
			return err
		}

		log.Printf("Strategy schema successfully generated at %s", path)
	}

	return generateSampleConfig(defaultSampleConfig(), sampleConfigPath, engineSchemaName)
}

func strategySchemaName(name string) string {
	return fmt.Sprintf("strategy-%s-config.json", name)
}

func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

func generateStrategySchemaFile(name string, schemaPath string) error {
	schemaJSON, err := strategy.ConfigSchema(name)
	if err != nil {
		return fmt.Errorf("failed to generate schema for strategy %s: %w", name, err)
	}

	return writeFile(schemaPath, []byte(schemaJSON))
}

func generateSampleConfig(config sampleConfig, samplePath string, schemaName string) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	if _, err := os.Stat(samplePath); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := writeFile(samplePath, yamlBytes); err != nil {
		return err
	}

	log.Printf("Sample config successfully generated at %s", samplePath)

	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

func validatePaths(schemaPath string, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(schemaName string) error {
	if schemaName == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(schemaName, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", schemaName)
	}

	return nil
}

func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
