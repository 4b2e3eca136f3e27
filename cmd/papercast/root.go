package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"papercast/internal/client"
	"papercast/internal/config"
)

// commandContext carries flag values and lazily loaded configuration shared
// across subcommands.
type commandContext struct {
	configFlag *string
	apiFlag    *string

	cfg *config.Config
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, apiFlag: apiFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// apiBaseURL resolves the daemon address: the --api flag wins, then the
// configured bind address.
func (c *commandContext) apiBaseURL() (string, error) {
	if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
		return normalizeBaseURL(addr), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return normalizeBaseURL(cfg.Paths.APIBind), nil
}

func (c *commandContext) newClient() (*client.Client, error) {
	base, err := c.apiBaseURL()
	if err != nil {
		return nil, err
	}
	return client.New(base, &http.Client{}), nil
}

func normalizeBaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var apiFlag string

	ctx := newCommandContext(&configFlag, &apiFlag)

	rootCmd := &cobra.Command{
		Use:           "papercast",
		Short:         "Turn research papers into podcast episodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "Daemon API address (host:port or URL)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// requireSingleArg standardizes argument errors across subcommands.
func requireSingleArg(name string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one %s argument", name)
		}
		return nil
	}
}
