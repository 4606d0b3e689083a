// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	configPath string
	sourceDir  string
	prefix     string
	logJSON    bool

	onLogJSON func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Install(ctx context.Context, opts app.Options) error
	Test(ctx context.Context, opts app.Options) error
	Run(ctx context.Context, opts app.Options) error
	Dependencies(platform domain.Platform) []domain.DependencySpec
	Environment(opts app.Options) (domain.EnvironmentPlan, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build, install and verify the static analyzer from source",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", domain.ConfigFileName, "Path to the config file")
	flags.StringVar(&c.sourceDir, "source", "", "Analyzer source checkout (overrides config)")
	flags.StringVar(&c.prefix, "prefix", "", "Install prefix (overrides config)")
	flags.BoolVar(&c.logJSON, "log-json", false, "Write logs as JSON")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if c.onLogJSON != nil {
			c.onLogJSON(c.logJSON)
		}
	}

	rootCmd.AddCommand(c.newInstallCmd())
	rootCmd.AddCommand(c.newTestCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newEnvCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// OnLogJSON registers fn to receive the --log-json setting before a command runs.
func (c *CLI) OnLogJSON(fn func(enable bool)) {
	c.onLogJSON = fn
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) options() app.Options {
	return app.Options{
		ConfigPath: c.configPath,
		SourceDir:  c.sourceDir,
		Prefix:     c.prefix,
	}
}
