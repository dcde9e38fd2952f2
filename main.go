// Package main provides the entry point for the miditone CLI application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/miditone/miditone/internal/audio"
	"github.com/miditone/miditone/internal/wav"
	"github.com/miditone/miditone/synth"
	"github.com/miditone/miditone/synth/engines"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	outputPath string
	playAudio  bool
	engineName string
	sampleRate int
	channels   int
	baseURL    string
	dataDir    string

	rootCmd = &cobra.Command{
		Use:   "miditone [FILE]",
		Short: "Render MIDI scores to audio, fetching instrument patches on demand",
		Long: "\nRender a MIDI score to raw audio. Instrument patches the synthesis\n" +
			"engine is missing are fetched concurrently, staged, and the score is\n" +
			"reparsed before rendering.",
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		RunE:             execute,
	}
)

// envConfig holds environment-only settings.
type envConfig struct {
	LogFile string `env:"MIDITONE_LOGFILE"`
	Debug   bool   `env:"MIDITONE_DEBUG"`
}

// readSource reads the score bytes from the argument, or stdin for "-" and
// piped input.
func readSource(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return data, "stdin", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("unable to open file: %w", err)
	}
	return data, args[0], nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// stagingDir resolves the directory instrument patches are staged in.
func stagingDir(cfg synth.Config) (string, error) {
	dir := cfg.DataDir
	if dir == "" {
		scope := gap.NewScope(gap.User, "miditone")
		dirs, err := scope.DataDirs()
		if err != nil || len(dirs) == 0 {
			return "", fmt.Errorf("could not find data directory: %w", err)
		}
		dir = filepath.Join(dirs[0], "patches")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create staging directory: %w", err)
	}
	return dir, nil
}

func execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if piped, err := stdinIsPipe(); err != nil {
			return err
		} else if !piped {
			return cmd.Help()
		}
	}

	cfg, err := synth.LoadConfigFromViper()
	if err != nil {
		return err
	}

	data, name, err := readSource(args)
	if err != nil {
		return err
	}

	dir, err := stagingDir(cfg)
	if err != nil {
		return err
	}
	staging := afero.NewBasePathFs(afero.NewOsFs(), dir)

	session, err := engines.New(cfg.Engine, staging)
	if err != nil {
		return err
	}

	converter, err := synth.NewConverter(session, staging, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Debug("converting", "source", name, "engine", cfg.Engine, "staging", dir)
	result, err := converter.Convert(ctx, data)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	log.Info("conversion finished",
		"frames", result.Frames(),
		"duration", result.Duration())

	if playAudio {
		return audio.Play(ctx, result)
	}

	out := outputPath
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)) + ".wav"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := wav.Encode(f, result); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	log.Info("wrote audio", "path", out)
	return nil
}

func setupLog() (func() error, error) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(log.LogfmtFormatter)
		log.SetReportTimestamp(true)
	}

	ec, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if ec.Debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	if ec.LogFile != "" {
		f, err := os.OpenFile(ec.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: miditone.yml in the config directory)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output WAV path (default: input name with .wav)")
	rootCmd.Flags().BoolVarP(&playAudio, "play", "p", false, "play the rendered audio instead of writing a file")
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", fmt.Sprintf("synthesis engine (%s)", strings.Join(engines.Available(), ", ")))
	rootCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "output sample rate in Hz")
	rootCmd.Flags().IntVar(&channels, "channels", 0, "output channel count")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "base URL instrument patches are fetched from")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory patches are staged in")
	rootCmd.Flags().Bool("debug", false, "enable debug logging")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	_ = viper.BindPFlag("channels", rootCmd.Flags().Lookup("channels"))
	_ = viper.BindPFlag("resources.base_url", rootCmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("data_dir", rootCmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	synth.SetDefaults()

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "miditone")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "miditone")}, dirs...)
	}

	if c := os.Getenv("MIDITONE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("miditone")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("miditone")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "miditone.yml")
	}
}
