package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# optionflow configuration

[defaults]
# Scenario used when a parameter flag is not given
spot = 100.0
strike = 100.0
# Calendar days to expiry
days = 120
# Annual risk-free rate as a decimal (0.0365 = 3.65%)
rate = 0.0365
# Annual volatility as a decimal (0.25 = 25%)
volatility = 0.25

[ui]
color_enabled = true
# Output language: "en" or "zh"
language = "en"

[server]
addr = ":8080"
# Gin mode: "debug", "release" or "test"
mode = "release"
read_timeout = "10s"
write_timeout = "10s"

[store]
# SQLite database for saved scenarios; defaults to optionflow.db in this directory
# path = "/path/to/optionflow.db"

[analyst]
model = "gpt-4o-mini"
# OpenAI-compatible endpoint, e.g. a local proxy; OPENAI_BASE_URL overrides it
# base_url = "http://localhost:11434/v1"
# Upper bound on commentary length
max_words = 150
timeout = "60s"

[logging]
# debug, info, warn, error
level = "info"
console = true
file = false
max_size = 20
max_backups = 5
max_age = 14
`

const credentialsTemplate = `# optionflow credentials
# IMPORTANT: Keep this file secure and never commit it to version control

[openai]
# Used by "optionflow analyze"; OPENAI_API_KEY overrides this value
api_key = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
