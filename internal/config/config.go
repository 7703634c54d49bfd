package config

import (
	"fmt"

	"github.com/ossyrian/gcmtool/internal/disc"
	"github.com/ossyrian/gcmtool/internal/gcm"
)

// Config holds app configuration
type Config struct {
	InputFile string `mapstructure:"input"`

	// Alignment of relocated file data in bytes.
	// GameCube discs commonly use 4; some tools prefer 0x80 or 0x8000.
	Alignment int64 `mapstructure:"alignment"`

	// NameEncoding is the charset of FST names and the header title
	// (ascii, shift-jis, latin1)
	NameEncoding string `mapstructure:"name_encoding"`

	// AllowGrow lets replace place data past the end of the image,
	// up to the size of a full disc
	AllowGrow bool `mapstructure:"allow_grow"`

	// Strict rejects images without a GameCube or Wii magic word
	Strict bool `mapstructure:"strict"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Validate checks values that cannot be expressed by flag types.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("no input image given")
	}
	if c.Alignment < 0 {
		return fmt.Errorf("alignment must not be negative, got %d", c.Alignment)
	}
	if c.Alignment > 1 && c.Alignment&(c.Alignment-1) != 0 {
		return fmt.Errorf("alignment must be a power of two, got %d", c.Alignment)
	}
	if _, err := gcm.NameEncoding(c.NameEncoding); err != nil {
		return err
	}
	return nil
}

// DiscOptions converts the configuration into options for disc.Open.
func (c *Config) DiscOptions() (disc.Options, error) {
	enc, err := gcm.NameEncoding(c.NameEncoding)
	if err != nil {
		return disc.Options{}, err
	}

	return disc.Options{
		Alignment:    c.Alignment,
		NameEncoding: enc,
		AllowGrow:    c.AllowGrow,
	}, nil
}
