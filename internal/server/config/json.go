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
// both string values such as "24h" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN          string         `json:"database_dsn"`
	SecretKey            string         `json:"secret_key"`
	AccessTokenValidity  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidity timex.Duration `json:"refresh_token_validity"`
	ResetTokenValidity   timex.Duration `json:"reset_token_validity"`
	CleanupInterval      timex.Duration `json:"cleanup_interval"`
	DefaultRoleName      string         `json:"default_role_name"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. An unreadable or
// invalid file panics: a half-applied config is worse than no start.
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

	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidity = time.Duration(c.AccessTokenValidity.Duration)
	config.RefreshTokenValidity = time.Duration(c.RefreshTokenValidity.Duration)
	config.ResetTokenValidity = time.Duration(c.ResetTokenValidity.Duration)
	config.CleanupInterval = time.Duration(c.CleanupInterval.Duration)
	config.DefaultRoleName = c.DefaultRoleName
}
