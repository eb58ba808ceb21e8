package config

import (
	"encoding/json"
	"os"

	"github.com/avolkovs/tallybook/internal/flagx"
	"github.com/avolkovs/tallybook/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so JSON can spell them either as strings like "2s" or as
// integer nanoseconds.
type JsonConfig struct {
	ServiceBaseURL string         `json:"service_base_url"`
	AuthURL        string         `json:"auth_url"`
	DatabasePath   string         `json:"database_path"`
	DocumentName   string         `json:"document_name"`
	DebounceDelay  timex.Duration `json:"debounce_delay"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flag. Absent flag means no JSON is loaded. Only non-zero JSON
// fields override what is already in cfg, so the file may be partial.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServiceBaseURL != "" {
		cfg.ServiceBaseURL = jc.ServiceBaseURL
	}
	if jc.AuthURL != "" {
		cfg.AuthURL = jc.AuthURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.DocumentName != "" {
		cfg.DocumentName = jc.DocumentName
	}
	if jc.DebounceDelay.Duration != 0 {
		cfg.DebounceDelay = jc.DebounceDelay.Duration
	}
}
