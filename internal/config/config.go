package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"opsdeck/internal/domain"
)

// Config models opsdeck.yml. It is stored in the database and seeded from
// the embedded default template on first use.
type Config struct {
	Org struct {
		Tiers map[string]TierLabels `yaml:"tiers"`
	} `yaml:"org"`
	KPI struct {
		Weights struct {
			Completed  float64 `yaml:"completed"`
			InProgress float64 `yaml:"in_progress"`
		} `yaml:"weights"`
		RAG struct {
			Green float64 `yaml:"green"`
			Amber float64 `yaml:"amber"`
		} `yaml:"rag"`
	} `yaml:"kpi"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

type TierLabels struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// AnalysisConfig points at the external analyze-sop service. An empty URL
// disables the feature.
type AnalysisConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	for id := range c.Org.Tiers {
		switch id {
		case domain.TierStrategic, domain.TierManagerial, domain.TierOperational:
		default:
			return fmt.Errorf("config.org.tiers contains unknown tier %s", id)
		}
	}
	w := c.KPI.Weights
	if w.Completed < 0 || w.Completed > 1 {
		return fmt.Errorf("config.kpi.weights.completed must be within [0,1]")
	}
	if w.InProgress < 0 || w.InProgress > 1 {
		return fmt.Errorf("config.kpi.weights.in_progress must be within [0,1]")
	}
	if w.InProgress > w.Completed {
		return fmt.Errorf("config.kpi.weights.in_progress must not exceed completed")
	}
	rag := c.KPI.RAG
	if rag.Green <= 0 || rag.Green > 100 {
		return fmt.Errorf("config.kpi.rag.green must be within (0,100]")
	}
	if rag.Amber <= 0 || rag.Amber >= rag.Green {
		return fmt.Errorf("config.kpi.rag.amber must be positive and below green")
	}
	if c.Analysis.TimeoutSeconds < 0 {
		return fmt.Errorf("config.analysis.timeout_seconds must not be negative")
	}
	return nil
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// applyDefaults fills in zero-valued scoring knobs so a partial config file
// keeps the stock KPI behavior.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.KPI.Weights.Completed == 0 {
		cfg.KPI.Weights.Completed = def.KPI.Weights.Completed
	}
	if cfg.KPI.Weights.InProgress == 0 {
		cfg.KPI.Weights.InProgress = def.KPI.Weights.InProgress
	}
	if cfg.KPI.RAG.Green == 0 {
		cfg.KPI.RAG.Green = def.KPI.RAG.Green
	}
	if cfg.KPI.RAG.Amber == 0 {
		cfg.KPI.RAG.Amber = def.KPI.RAG.Amber
	}
	if cfg.Analysis.TimeoutSeconds == 0 {
		cfg.Analysis.TimeoutSeconds = def.Analysis.TimeoutSeconds
	}
}

const defaultTemplate = `org:
  tiers:
    strategic:
      name: Strategic
      description: "Direction-setting roles: vision, policy, long-range planning"
    managerial:
      name: Managerial
      description: "Coordinating roles: planning, supervision, resource allocation"
    operational:
      name: Operational
      description: "Executing roles: day-to-day task performance"

kpi:
  weights:
    completed: 1.0
    in_progress: 0.5
  rag:
    green: 75
    amber: 40

analysis:
  url: ""
  api_key: ""
  timeout_seconds: 30
`
