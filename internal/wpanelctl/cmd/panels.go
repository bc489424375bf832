package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpanelctl/util"
)

// newPanelsCmd creates the panel inspection command
func newPanelsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "panels",
		Aliases: []string{"panel"},
		Short:   "Inspect panels on the daemon",
		Long: `The panels command lists the daemon's panels, shows what each one is
rendering right now and triggers immediate refreshes.`,
	}

	cmd.AddCommand(
		newPanelsListCmd(opts),
		newPanelsGetCmd(opts),
		newPanelsStateCmd(opts),
		newPanelsRefreshCmd(opts),
		newPanelsReportMediaCmd(opts),
	)
	return cmd
}

func newPanelsListCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List panels",
		Example: `  # List panels as a table
  wpanelctl panels list

  # List panels as JSON for scripting
  wpanelctl panels list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.ValidateOutput(output); err != nil {
				return err
			}
			c, err := opts.getClient()
			if err != nil {
				return err
			}

			panels, err := c.ListPanels(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing panels: %w", err)
			}

			if ok, err := util.PrintStructured(cmd.OutOrStdout(), output, panels); ok {
				return err
			}
			printPanelTable(cmd.OutOrStdout(), panels, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", util.OutputTable, "output format (table, json, yaml)")
	return cmd
}

func newPanelsGetCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.ValidateOutput(output); err != nil {
				return err
			}
			c, err := opts.getClient()
			if err != nil {
				return err
			}

			p, err := c.GetPanel(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error getting panel: %w", err)
			}

			if ok, err := util.PrintStructured(cmd.OutOrStdout(), output, p); ok {
				return err
			}
			printPanelTable(cmd.OutOrStdout(), []v1alpha1.Panel{*p}, time.Now())
			if p.Status.LastError != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nLast error: %s\n", p.Status.LastError)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", util.OutputTable, "output format (table, json, yaml)")
	return cmd
}

func newPanelsStateCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "state ID",
		Short: "Show what a panel is rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.ValidateOutput(output); err != nil {
				return err
			}
			c, err := opts.getClient()
			if err != nil {
				return err
			}

			st, err := c.GetPanelState(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error getting panel state: %w", err)
			}

			if ok, err := util.PrintStructured(cmd.OutOrStdout(), output, st); ok {
				return err
			}
			printState(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", util.OutputTable, "output format (table, json, yaml)")
	return cmd
}

func newPanelsRefreshCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh ID",
		Short: "Fetch a panel's content now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.getClient()
			if err != nil {
				return err
			}

			res, err := c.RefreshPanel(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error refreshing panel: %w", err)
			}

			if res.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Panel %q refreshed, now at version %d\n", res.PanelID, res.Version)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Panel %q unchanged at version %d\n", res.PanelID, res.Version)
			}
			return nil
		},
	}
}

func newPanelsReportMediaCmd(opts *globalOptions) *cobra.Command {
	var (
		ref    string
		failed bool
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "report-media ID",
		Short: "Report a media load result as a display would",
		Example: `  # Mark an image as failing so the carousel skips it
  wpanelctl panels report-media entrance --ref=http://backend/api/media/a.jpg --failed

  # Teach the dual layout an image's size
  wpanelctl panels report-media entrance --ref=http://backend/api/media/b.jpg --width=1080 --height=1920`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.getClient()
			if err != nil {
				return err
			}

			status := v1alpha1.MediaStatus{
				MediaRef: ref,
				Loaded:   !failed,
				Width:    width,
				Height:   height,
			}
			if err := c.ReportMedia(cmd.Context(), args[0], status); err != nil {
				return fmt.Errorf("error reporting media: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Media status reported")
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "media ref (required)")
	cmd.Flags().BoolVar(&failed, "failed", false, "report a load failure")
	cmd.Flags().IntVar(&width, "width", 0, "natural width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "natural height in pixels")
	cmd.MarkFlagRequired("ref")

	return cmd
}

func printPanelTable(w io.Writer, panels []v1alpha1.Panel, now time.Time) {
	tw := util.NewTabWriter(w)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tLAYOUT\tSOURCE\tVERSION\tITEMS\tFAILED\tLAST REFRESH")
	for _, p := range panels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			p.ID,
			p.Spec.Layout,
			p.Spec.Source,
			p.Status.Version,
			p.Status.Items,
			p.Status.FailedMedia,
			util.FormatAge(p.Status.LastRefresh, now),
		)
	}
}

func printState(w io.Writer, st *v1alpha1.PanelState) {
	fmt.Fprintf(w, "Panel:   %s (%s)\n", st.PanelID, st.Layout)
	fmt.Fprintf(w, "Version: %d\n", st.Version)
	if st.Empty {
		fmt.Fprintln(w, "Nothing to display")
		return
	}
	if st.Action != nil {
		fmt.Fprintf(w, "Action:  %s (#%d)\n", st.Action.Name, st.ActionIndex)
	}

	switch st.Layout {
	case v1alpha1.PanelLayoutCarousel:
		fmt.Fprintf(w, "Current: %s\n", describeItem(st.Current))
	case v1alpha1.PanelLayoutDual:
		fmt.Fprintf(w, "Left:    %s\n", describeItem(st.Left))
		fmt.Fprintf(w, "Right:   %s\n", describeItem(st.Right))
		if st.Split != nil {
			fmt.Fprintf(w, "Split:   %.2f/%.2f\n", st.Split.LeftPercent, st.Split.RightPercent)
		}
	default:
		if st.PageCount > 0 {
			fmt.Fprintf(w, "Page:    %d of %d\n", st.Page+1, st.PageCount)
		}
		if st.Dropped > 0 {
			fmt.Fprintf(w, "Dropped: %d\n", st.Dropped)
		}
		printSlots(w, st.Slots)
	}
}

func printSlots(w io.Writer, slots []v1alpha1.GridSlot) {
	tw := util.NewTabWriter(w)
	defer tw.Flush()

	fmt.Fprintln(tw, "SLOT\tITEM\tORDINAL")
	for _, s := range slots {
		if s.Item == nil {
			fmt.Fprintf(tw, "%d\t-\t\n", s.Index+1)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Index+1, describeItem(s.Item), ordinal(s.Item.Ordinal))
	}
}

func describeItem(it *v1alpha1.DisplayItem) string {
	if it == nil {
		return "-"
	}
	s := it.ID
	if it.Title != "" && it.Title != it.ID {
		s = it.Title + " [" + it.ID + "]"
	}
	if it.Failed {
		s += " (failed)"
	}
	return s
}

func ordinal(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}
