package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/staffbook/backend/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options holds flag values that override the loaded configuration.
type options struct {
	configFile string
	dataFile   string
	addr       string
	noWatch    bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(serve)
}

// newRootCmdWith builds the root command around run, which receives the
// configuration after flags are applied.
func newRootCmdWith(run func(context.Context, *config.Config) error) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "staffbook",
		Short: "Serve the employee collection over HTTP",
		Long: `Serve create, list, update and delete operations over a CSV file of
employee records.

Configuration comes from staffbook.yml (or the file named by STAFFBOOK_CONFIG),
then the environment, then flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.dataFile, "data-file", "", "path to the employees CSV file")
	root.Flags().StringVar(&opts.addr, "addr", "", "listen address, e.g. :8080")
	root.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the data file for outside edits")

	root.AddCommand(newListCmd(opts))
	return root
}

func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-file") {
		cfg.Store.DataFile = o.dataFile
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if flags.Changed("no-watch") && o.noWatch {
		cfg.Store.Watch = false
	}
	return cfg, nil
}
