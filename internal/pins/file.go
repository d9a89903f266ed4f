package pins

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape shared by the YAML and TOML formats.
type fileConfig struct {
	DebounceMs *int         `yaml:"debounce_ms" toml:"debounce_ms"`
	LEDEnabled *bool        `yaml:"led_enabled" toml:"led_enabled"`
	Debug      *bool        `yaml:"debug" toml:"debug"`
	Buttons    []fileButton `yaml:"buttons" toml:"buttons"`
}

type fileButton struct {
	Pin int  `yaml:"pin" toml:"pin"`
	LED *int `yaml:"led" toml:"led"`
}

// LoadFile reads a config file on top of Default(). The format is picked by
// extension: .yaml/.yml or .toml. The result is not validated.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}

	return fc.apply(Default()), nil
}

func (fc fileConfig) apply(c Config) Config {
	if fc.DebounceMs != nil {
		c.DebounceMs = *fc.DebounceMs
	}
	if fc.LEDEnabled != nil {
		c.LEDEnabled = *fc.LEDEnabled
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
	if len(fc.Buttons) > 0 {
		c.Buttons = make([]ButtonSlot, len(fc.Buttons))
		for i, b := range fc.Buttons {
			led := NoLED
			if b.LED != nil {
				led = *b.LED
			}
			c.Buttons[i] = ButtonSlot{Index: i, Pin: b.Pin, LEDPin: led}
		}
	}
	return c
}
