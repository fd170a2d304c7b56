package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the settings of one diff run.
type Config struct {
	From    string `json:"connection_string_from"`
	To      string `json:"connection_string_to"`
	Output  string `json:"output_file"`
	Dialect string `json:"dialect"`
	Diffs   *Diffs `json:"generate_diffs"`
}

// Load reads configuration from an optional JSON file, then from the .env
// file and environment variables, which take precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{Diffs: Default()}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if cfg.Diffs == nil {
			cfg.Diffs = Default()
		}
	}

	// Load .env file if it exists (silently ignore if missing)
	_ = godotenv.Load()

	overrideFromEnv(&cfg.From, "SCHEMADIFF_FROM")
	overrideFromEnv(&cfg.To, "SCHEMADIFF_TO")
	overrideFromEnv(&cfg.Output, "SCHEMADIFF_OUTPUT")
	overrideFromEnv(&cfg.Dialect, "SCHEMADIFF_DIALECT")

	if err := cfg.Diffs.Compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// UnmarshalJSON decodes generate_diffs over the defaults, so omitted
// toggles stay enabled.
func (d *Diffs) UnmarshalJSON(data []byte) error {
	type plain Diffs
	p := plain(*Default())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Diffs(p)
	return nil
}
