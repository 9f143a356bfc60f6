package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Interval fields use timex.Duration, which accepts
// both string values such as "30s" and integer nanoseconds.
type JsonConfig struct {
	CachePath      string         `json:"cache_path"`
	RenewalLead    timex.Duration `json:"renewal_lead"`
	RenewalTimeout timex.Duration `json:"renewal_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.CachePath = c.CachePath
	config.RenewalLead = time.Duration(c.RenewalLead.Duration)
	config.RenewalTimeout = time.Duration(c.RenewalTimeout.Duration)
}
