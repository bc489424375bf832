package cmd

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-panels/internal/wpanelctl/config"
	"github.com/wrale/wrale-panels/internal/wpanelctl/util"
)

// newConfigCmd creates the config command that manages daemon contexts
func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `The config command manages contexts. Each context names a panel daemon,
so switching between stores or between a lab and production is one command.`,
	}

	cmd.AddCommand(
		newConfigGetContextsCmd(opts),
		newConfigSetContextCmd(opts),
		newConfigUseContextCmd(opts),
		newConfigDeleteContextCmd(opts),
	)
	return cmd
}

func newConfigGetContextsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "get-contexts",
		Aliases: []string{"get-context"},
		Short:   "List contexts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(opts.cfg.Contexts))
			for name := range opts.cfg.Contexts {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := util.NewTabWriter(cmd.OutOrStdout())
			defer tw.Flush()
			fmt.Fprintln(tw, "CURRENT\tNAME\tSERVER")
			for _, name := range names {
				current := ""
				if name == opts.cfg.CurrentContext {
					current = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", current, name, opts.cfg.Contexts[name].Server)
			}
			return nil
		},
	}
}

func newConfigSetContextCmd(opts *globalOptions) *cobra.Command {
	var (
		server      string
		insecureTLS bool
		use         bool
	)

	cmd := &cobra.Command{
		Use:   "set-context NAME",
		Short: "Create or update a context",
		Example: `  # Point a context at a store's daemon and switch to it
  wpanelctl config set-context store-12 --server=http://store-12:8080 --use`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			u, err := url.Parse(server)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("invalid server URL %q", server)
			}

			opts.cfg.AddContext(name, &config.Context{
				Server:             server,
				InsecureSkipVerify: insecureTLS,
			})
			if use || opts.cfg.CurrentContext == "" {
				opts.cfg.CurrentContext = name
			}
			if err := opts.cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q set\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "daemon URL (required)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure-skip-tls-verify", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&use, "use", false, "make this the current context")
	cmd.MarkFlagRequired("server")

	return cmd
}

func newConfigUseContextCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use-context NAME",
		Short: "Switch the current context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.SetCurrentContext(args[0]); err != nil {
				return err
			}
			if err := opts.cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", args[0])
			return nil
		},
	}
}

func newConfigDeleteContextCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context NAME",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.RemoveContext(args[0]); err != nil {
				return err
			}
			if err := opts.cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted\n", args[0])
			return nil
		},
	}
}
