// Package cli implements the ticketd commands.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/tickets/internal/config"
)

// App holds the state shared by all commands.
type App struct {
	Config *config.Config
	Out    io.Writer
	Err    io.Writer
}

var (
	// Global flags
	configPath string
	backend    string

	// The App instance, initialized in PersistentPreRunE
	app *App
)

var rootCmd = &cobra.Command{
	Use:   "ticketd",
	Short: "Serve and manage hierarchical tickets",
	Long: `ticketd stores tickets that form trees through a parent pointer.
It serves them over HTTP and can seed a backend with sample data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		var err error
		app, err = NewApp(configPath, backend, os.Stdout, os.Stderr)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("TICKETS_CONFIG"), "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: memory, dynamodb or neo4j")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

// NewApp loads the configuration. A non-empty backend overrides the
// configured one.
func NewApp(path, backend string, out, errOut io.Writer) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &App{Config: cfg, Out: out, Err: errOut}, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
