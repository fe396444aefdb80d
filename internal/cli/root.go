package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"llamaconv/internal/logging"
	"llamaconv/pkg/config"
)

type globalOpts struct {
	configPath    string
	logLevel      string
	cpuProfile    string
	memProfileDir string

	conf            *config.Conf
	profileTeardown func() error
}

// Execute runs the llamaconv command line with args, profilers are flushed even when the command fails.
func Execute(ctx context.Context, args []string) (err error) {
	opts := &globalOpts{}
	rootCmd := newRootCommand(opts)
	rootCmd.SetArgs(args)
	defer func() {
		err = multierr.Append(err, opts.teardown())
	}()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(opts *globalOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "llamaconv",
		Short:        "Converts PyTorch LLaMA checkpoints into ggml models",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "Path to the TOML config file, defaults are used when it does not exist")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error. Overrides the config file")
	rootCmd.PersistentFlags().StringVar(&opts.cpuProfile, "cpu-profile", "", "Dump CPU profile into the supplied file")
	rootCmd.PersistentFlags().StringVar(&opts.memProfileDir, "mem-profile-dir", "", "Dump memory profiles into the supplied directory")

	rootCmd.AddCommand(
		DummyCommand(opts),
		ValidateCommand(opts),
		ConvertCommand(opts),
		ConfigCommands(opts),
		ServeAppCommand(opts),
	)
	return rootCmd
}

func (o *globalOpts) setup(cmd *cobra.Command) error {
	conf, err := config.FromFile(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		conf.Log.Level = o.logLevel
	}
	if err := logging.Configure(cmd.ErrOrStderr(), conf.Log.Level); err != nil {
		return err
	}
	o.conf = conf

	teardown, err := startProfiling(o.cpuProfile, o.memProfileDir)
	if err != nil {
		return err
	}
	o.profileTeardown = teardown
	return nil
}

func (o *globalOpts) teardown() error {
	if o.profileTeardown == nil {
		return nil
	}
	teardown := o.profileTeardown
	o.profileTeardown = nil
	return teardown()
}

func executable() string {
	path, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return path
}
