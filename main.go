package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/gcmtool/internal/config"
	"github.com/ossyrian/gcmtool/internal/disc"
	"github.com/ossyrian/gcmtool/internal/gcm"
	"github.com/ossyrian/gcmtool/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config

	// appFs is where images are opened and files are extracted to
	appFs = afero.NewOsFs()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gcmtool",
	Short: "Inspect, extract and patch files in GameCube GCM disc images",
	Long: `gcmtool reads the file system table of a GameCube GCM (.gcm/.iso) image.

Examples:
  gcmtool info -i game.gcm
  gcmtool list -i game.gcm /audio --format yaml
  gcmtool extract -i game.gcm /audio -o ./audio
  gcmtool replace -i game.gcm /opening.bnr ./opening.bnr
  gcmtool verify -i game.gcm`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	flags.StringP("input", "i", "", "path to .gcm image (required)")

	// image settings
	flags.Int64("alignment", gcm.DefaultAlignment, "alignment in bytes of relocated file data")
	flags.String("name-encoding", "ascii", "charset of file names (ascii, shift-jis, latin1)")
	flags.Bool("allow-grow", false, "allow replaced files to extend the image up to full disc size")
	flags.Bool("strict", false, "reject images without a GameCube or Wii magic word")

	// other opts
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	flags.String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	viper.BindPFlag("input", flags.Lookup("input"))
	viper.BindPFlag("alignment", flags.Lookup("alignment"))
	viper.BindPFlag("name_encoding", flags.Lookup("name-encoding"))
	viper.BindPFlag("allow_grow", flags.Lookup("allow-grow"))
	viper.BindPFlag("strict", flags.Lookup("strict"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_output_dir", flags.Lookup("log-output-dir"))

	rootCmd.AddCommand(infoCmd, listCmd, extractCmd, replaceCmd, verifyCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gcmtool"))
		}
		viper.AddConfigPath("/etc/gcmtool")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("GCMTOOL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup loads the configuration and logging before any subcommand runs
func setup(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	return nil
}

// openImage opens the configured input image, read-only unless writable is set
func openImage(writable bool) (*disc.Image, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}

	file, err := appFs.OpenFile(cfg.InputFile, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	opts, err := cfg.DiscOptions()
	if err != nil {
		file.Close()
		return nil, err
	}
	opts.Logger = slog.Default()

	img, err := disc.Open(file, opts)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
	}

	if cfg.Strict {
		if err := img.Header().Validate(); err != nil {
			img.Close()
			return nil, fmt.Errorf("error parsing %s: %w", cfg.InputFile, err)
		}
	}

	return img, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
