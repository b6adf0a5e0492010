// Package config loads the lexibot configuration: the shared bot settings
// plus database and dictionary options.
package config

import (
	"fmt"

	coreconfig "github.com/m3rciful/lexibot/core/config"
	"github.com/m3rciful/lexibot/core/database"
)

const (
	defaultTranslationLimit = 100
	defaultPOSColumns       = 2
)

// DictionaryConfig tunes how entries are presented.
type DictionaryConfig struct {
	// TranslationDisplayLimit caps the translation shown on a browse card, in runes.
	TranslationDisplayLimit int `yaml:"translation_display_limit" envconfig:"DICT_TRANSLATION_LIMIT"`
	PartOfSpeechColumns     int `yaml:"part_of_speech_columns" envconfig:"DICT_POS_COLUMNS"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database   database.Config  `yaml:"database"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
}

// CoreConfig exposes the embedded shared configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, overlays env variables and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	return c.Dictionary.normalize()
}

func (d *DictionaryConfig) normalize() error {
	if d.TranslationDisplayLimit < 0 || d.PartOfSpeechColumns < 0 {
		return fmt.Errorf("dictionary settings must be >= 0")
	}
	if d.TranslationDisplayLimit == 0 {
		d.TranslationDisplayLimit = defaultTranslationLimit
	}
	if d.PartOfSpeechColumns == 0 {
		d.PartOfSpeechColumns = defaultPOSColumns
	}
	return nil
}
