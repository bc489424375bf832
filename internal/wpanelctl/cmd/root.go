// Package cmd implements the panel CLI commands
package cmd

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-panels/internal/wpanelctl/client"
	"github.com/wrale/wrale-panels/internal/wpanelctl/config"
)

// EnvServer overrides the daemon URL of the current context
const EnvServer = "WPANEL_SERVER"

// globalOptions holds persistent flags shared by every command
type globalOptions struct {
	configFile string
	server     string
	context    string
	debug      bool

	cfg *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "wpanelctl",
		Short: "Panel daemon control tool",
		Long: `wpanelctl inspects panels on a running panel daemon and evaluates
grid layouts locally. Daemon endpoints are kept as named contexts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.wpanelctl/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.server, "server", "", "daemon address, overrides the context")
	cmd.PersistentFlags().StringVar(&opts.context, "context", "", "context to use instead of the current one")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "print extra detail")

	cmd.AddCommand(
		newPanelsCmd(opts),
		newGridCmd(),
		newConfigCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *globalOptions) loadConfig() error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// getClient resolves the daemon address: --server, then WPANEL_SERVER,
// then --context or the current context
func (o *globalOptions) getClient() (*client.Client, error) {
	server := o.server
	if server == "" {
		server = os.Getenv(EnvServer)
	}

	var opts []client.ClientOption
	if server == "" {
		if o.cfg == nil {
			return nil, fmt.Errorf("no configuration loaded")
		}
		var ctx *config.Context
		if o.context != "" {
			c, ok := o.cfg.Contexts[o.context]
			if !ok {
				return nil, fmt.Errorf("context %q not found", o.context)
			}
			ctx = c
		} else {
			c, err := o.cfg.GetCurrentContext()
			if err != nil {
				return nil, fmt.Errorf("no daemon configured - use --server, set %s or run 'wpanelctl config set-context': %w", EnvServer, err)
			}
			ctx = c
		}
		server = ctx.Server
		if ctx.InsecureSkipVerify {
			opts = append(opts, client.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
		}
	}

	c, err := client.NewClient(server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return c, nil
}
