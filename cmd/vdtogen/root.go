package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// EnvPrefix is the prefix of the environment settings (VDTOGEN_LOG_LEVEL, ...).
	EnvPrefix = "VDTOGEN"
	// SettingsFile is read from the working directory when --config is not given.
	SettingsFile = ".vdtogen.yaml"

	keyLogLevel  = "log-level"
	keyOutSuffix = "out-suffix"
	keyNoColor   = "no-color"

	defaultOutSuffix = "_gen.go"
)

// app carries what every command shares. Commands read their settings
// through v once the root pre-run has loaded them.
type app struct {
	fs     afero.Fs
	v      *viper.Viper
	logger *zap.Logger

	// newLogger builds the logger for a level; replaced in tests.
	newLogger func(level string) (*zap.Logger, error)
}

func newApp(fs afero.Fs) *app {
	return &app{
		fs:        fs,
		v:         viper.New(),
		logger:    zap.NewNop(),
		newLogger: newLogger,
	}
}

// newRootCmd wires the command tree over fs.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vdtogen",
		Short: "Code generation and diagnostics for versioned models",
		Long: color.CyanString(`vdtogen - versioned model tooling

Generates proxy sources from YAML declarations and shows how version
identifiers of a namespace are ordered and resolved.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "settings file (default ./"+SettingsFile+")")
	pf.String(keyLogLevel, "", "log level: debug, info, warn or error")
	pf.Bool(keyNoColor, false, "disable coloured output")

	root.AddCommand(newProxyCmd(a), newVersionsCmd(a))
	return root
}

// load reads the settings file and the environment, binds the flags and
// builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	v := a.v
	v.SetFs(a.fs)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyOutSuffix, defaultOutSuffix)
	v.SetDefault(keyNoColor, false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = SettingsFile
	}
	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return fmt.Errorf("vdtogen: stat %s: %w", path, err)
	}
	switch {
	case exists:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("vdtogen: read settings %s: %w", path, err)
		}
	case explicit:
		return fmt.Errorf("vdtogen: settings file %s does not exist", path)
	}

	for _, key := range []string{keyLogLevel, keyOutSuffix, keyNoColor} {
		if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	if v.GetBool(keyNoColor) {
		color.NoColor = true
	}

	logger, err := a.newLogger(v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger returns a development logger for "debug" and a production logger
// at the given level otherwise.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("vdtogen: log-level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	infoColor = color.New(color.FgCyan)
	errColor  = color.New(color.FgRed, color.Bold)
)

func printOK(w io.Writer, format string, args ...any) {
	okColor.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

func printInfo(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, format+"\n", args...)
}

// printError reports err on w; declaration issues go one per line.
func printError(w io.Writer, err error) {
	var inv InvalidDeclarationError
	if errors.As(err, &inv) {
		errColor.Fprintf(w, "✗ invalid declaration %s\n", inv.File)
		for _, is := range inv.Issues {
			path := is.Path
			if path == "" {
				path = "/"
			}
			fmt.Fprintf(w, "  %s: %s\n", path, is.Message)
		}
		return
	}
	errColor.Fprint(w, "✗ ")
	fmt.Fprintln(w, err)
}
