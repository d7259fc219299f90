package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models orderline.yml.
type Config struct {
	Operator struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"operator"`
	Orders struct {
		Backend string `yaml:"backend"` // file | sqlite
		File    string `yaml:"file"`
	} `yaml:"orders"`
	Payment struct {
		WindowMinutes int    `yaml:"window_minutes"`
		Details       string `yaml:"details"`
	} `yaml:"payment"`
	Catalog struct {
		WorkTypes       []string `yaml:"work_types"`
		PricePresets    []int    `yaml:"price_presets"`
		DeadlinePresets []int    `yaml:"deadline_presets"`
		RefusalReasons  []string `yaml:"refusal_reasons"`
	} `yaml:"catalog"`
	Mirror struct {
		Path string `yaml:"path"`
	} `yaml:"mirror"`
	Webhooks []Webhook `yaml:"webhooks"`
	Server   struct {
		Addr      string `yaml:"addr"`
		JWTSecret string `yaml:"jwt_secret"`
		AdminKey  string `yaml:"admin_key"`
	} `yaml:"server"`
}

// Webhook is one HTTP sink the event pump delivers to.
type Webhook struct {
	ID     string   `yaml:"id"`
	URL    string   `yaml:"url"`
	Events []string `yaml:"events"`
	Secret string   `yaml:"secret"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with ol init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Operator.ID == "" {
		return fmt.Errorf("config.operator.id is required")
	}
	switch c.Orders.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("config.orders.backend must be 'file' or 'sqlite', got %q", c.Orders.Backend)
	}
	if c.Payment.WindowMinutes < 0 {
		return fmt.Errorf("config.payment.window_minutes must not be negative")
	}
	for i, n := range c.Catalog.DeadlinePresets {
		if n <= 0 {
			return fmt.Errorf("config.catalog.deadline_presets[%d] must be positive", i)
		}
	}
	for i, n := range c.Catalog.PricePresets {
		if n <= 0 {
			return fmt.Errorf("config.catalog.price_presets[%d] must be positive", i)
		}
	}
	for i, wh := range c.Webhooks {
		if wh.ID == "" {
			return fmt.Errorf("config.webhooks[%d].id is required", i)
		}
		if wh.URL == "" {
			return fmt.Errorf("webhook %s has empty url", wh.ID)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "orderline.yml")
}

// GenerateDefault returns default config YAML for the given operator.
func GenerateDefault(operatorID string) string {
	return fmt.Sprintf(defaultTemplate, operatorID)
}

// Default returns the default Config struct for an operator.
func Default(operatorID string) *Config {
	cfg, err := FromYAML([]byte(GenerateDefault(operatorID)))
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
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

const defaultTemplate = `operator:
  id: %s
  name: Administrator

orders:
  backend: file
  file: orders.json

payment:
  window_minutes: 15
  details: ""

catalog:
  work_types:
    - coursework
    - essay
    - report
    - thesis
    - presentation
    - other
  price_presets: [500, 800, 1000, 1500, 2000]
  deadline_presets: [1, 2, 3, 5, 7, 10, 14]
  refusal_reasons:
    - deadline
    - changed_mind
    - hard_topic
    - other

mirror:
  path: ""

webhooks: []

server:
  addr: :8080
  jwt_secret: ""
  admin_key: ""
`
