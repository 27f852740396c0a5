package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightbook/config"
	"flightbook/logging"
	"flightbook/service"
	"flightbook/store"
	"flightbook/tui"
)

const appName = "flightbook"

// env is what every command needs once the config file is read.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	client *service.Client
	cache  store.Cache
	closer io.Closer
}

func loadEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	cache, closer, err := store.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		client: service.NewClientFromConfig(cfg.API, logger),
		cache:  cache,
		closer: closer,
	}, nil
}

func (e *env) Close() {
	_ = e.closer.Close()
	_ = e.logger.Sync()
}

func NewRootCmd(version, commit string) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           appName,
		Short:         "Book flights from the terminal",
		Long:          `Search flights, pick seats and buy tickets without leaving the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			airports := service.NewAirportDirectory(e.client, e.cache, e.cfg.Cache.AirportTTL)
			app := tui.New(tui.Options{
				Gateway:  e.client,
				Airports: airports,
				Locator:  service.NewGeoLocator(nil, e.logger),
				Booking:  e.cfg.Booking,
				Logger:   e.logger,
			})
			_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config dir)")
	root.AddCommand(
		newVersionCmd(version, commit),
		newPnrCmd(&configPath),
		newServeDevCmd(&configPath),
		newConfigCmd(),
	)
	return root
}

func newVersionCmd(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of flightbook",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s", appName, version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}

func Execute(version, commit string) {
	if err := NewRootCmd(version, commit).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
