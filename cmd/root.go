// Package cmd is for command line interactions with the cox1 application
package cmd

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jjtimmons/cox1/config"
	"github.com/jjtimmons/cox1/internal/blast"
	"github.com/jjtimmons/cox1/internal/clustal"
	"github.com/jjtimmons/cox1/internal/ncbi"
	"github.com/jjtimmons/cox1/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settingKey annotates a flag with the viper key it overrides
const settingKey = "cox1_setting"

var (
	// settings file from --config
	settingsFile string

	// --log-json
	logJSON bool

	// --timeout, zero for none
	timeout time.Duration

	conf   *config.Config
	logger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "cox1",
	Short: `Compare a gene across species using public sequence services.
Fetch each species' record, align them, and search for similar sequences`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1) // cobra has printed the error
	}
}

func init() {
	cobra.OnInitialize(func() {
		config.SetDefaults(viper.GetViper())
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "config", "", "settings file (default is ./settings.yaml, then ~/.cox1/settings.yaml)")
	flags.BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")
	flags.DurationVar(&timeout, "timeout", 0, "cancel the command after this long, ex: 45m")
	flags.String("email", "", "contact email sent to NCBI and EBI")
	flags.BoolP("verbose", "v", false, "log each poll and retry")
	setting(flags, "email", "email")
	setting(flags, "verbose", "verbose")
}

// setting marks flag name as an override of the viper key. The binding
// happens in setup so commands can share a key through different flags.
func setting(flags *pflag.FlagSet, name, key string) {
	flags.SetAnnotation(name, settingKey, []string{key})
}

// setup reads the settings, applies the command's flags and creates the logger.
func setup(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := config.Read(v, settingsFile); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[settingKey]; ok && bindErr == nil {
			bindErr = v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c, err := config.New()
	if err != nil {
		return err
	}
	conf = c
	logger = newLogger(cmd.ErrOrStderr(), conf.Verbose, logJSON)

	if v.ConfigFileUsed() != "" {
		logger.Debug().Str("file", v.ConfigFileUsed()).Msg("read settings")
	}
	return nil
}

// newLogger tags every line with an id for this run.
func newLogger(w io.Writer, verbose, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run", uuid.NewString()).
		Logger()
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// newPipeline creates the remote clients from the loaded settings.
func newPipeline(cmd *cobra.Command) *pipeline.Pipeline {
	h := &http.Client{Timeout: conf.HTTP.Timeout}

	source := ncbi.New(
		ncbi.WithBaseURL(conf.NCBI.BaseURL),
		ncbi.WithHTTPClient(h),
		ncbi.WithLogger(logger),
		ncbi.WithIdentity(conf.Tool, conf.Email, conf.APIKey),
		ncbi.WithRetry(conf.Retry.MaxAttempts, conf.Retry.InitialInterval, conf.Retry.MaxInterval),
	)

	aligner := clustal.New(
		clustal.WithBaseURL(conf.Clustal.BaseURL),
		clustal.WithHTTPClient(h),
		clustal.WithLogger(logger),
		clustal.WithEmail(conf.Email),
		clustal.WithFormat(conf.Clustal.SeqType, conf.Clustal.OutFormat),
		clustal.WithPolling(conf.Clustal.PollInterval, conf.Clustal.MaxPolls),
	)

	searcher := blast.New(
		blast.WithBaseURL(conf.BLAST.BaseURL),
		blast.WithHTTPClient(h),
		blast.WithLogger(logger),
		blast.WithIdentity(conf.Tool, conf.Email),
		blast.WithHitlistSize(conf.BLAST.HitlistSize),
		blast.WithPolling(conf.BLAST.PollInterval, conf.BLAST.MaxWait),
	)

	return &pipeline.Pipeline{
		Source:   source,
		Aligner:  aligner,
		Searcher: searcher,
		Conf:     conf,
		Out:      cmd.OutOrStdout(),
		Logger:   logger,
	}
}

// requireEmail fails early for commands that submit jobs to EBI.
func requireEmail() error {
	if conf.Email == "" {
		return clustal.ErrMissingEmail
	}
	return nil
}
