package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
	"github.com/wrale/wrale-panels/internal/wpanelctl/util"
)

// gridOptions are shared by every grid subcommand
type gridOptions struct {
	file   string
	output string
}

func (o *gridOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "items file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVarP(&o.output, "output", "o", util.OutputTable, "output format (table, json, yaml)")
	cmd.MarkFlagRequired("file")
}

func (o *gridOptions) load(cmd *cobra.Command) ([]rotation.Item, error) {
	if err := util.ValidateOutput(o.output); err != nil {
		return nil, err
	}
	return util.LoadItems(o.file, cmd.InOrStdin())
}

// newGridCmd creates the offline grid evaluation command
func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Evaluate positional grid layouts locally",
		Long: `The grid command runs the daemon's slot allocation rules against an
items file without contacting a daemon. Use it to preview a price board or
to find a free position before editing the backend.`,
	}

	cmd.AddCommand(
		newGridAllocateCmd(),
		newGridConflictsCmd(),
		newGridSuggestCmd(),
		newGridValidateCmd(),
		newGridPageCmd(),
	)
	return cmd
}

type allocation struct {
	Size    int             `json:"size"`
	Filled  int             `json:"filled"`
	Slots   []allocatedSlot `json:"slots"`
	Dropped []rotation.Item `json:"dropped,omitempty"`
}

type allocatedSlot struct {
	Slot int            `json:"slot"`
	Item *rotation.Item `json:"item"`
}

func newGridAllocateCmd() *cobra.Command {
	opts := &gridOptions{}
	var size int

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Place items into grid slots",
		Example: `  # Preview the default 24 slot board
  wpanelctl grid allocate -f items.yaml

  # Preview a 12 slot board
  wpanelctl grid allocate -f items.yaml --size=12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if size <= 0 {
				return fmt.Errorf("--size must be positive")
			}
			items, err := opts.load(cmd)
			if err != nil {
				return err
			}

			grid := rotation.Allocate(items, size)
			result := allocation{Size: size, Filled: grid.Filled(), Dropped: grid.Dropped}
			for _, s := range grid.Slots {
				result.Slots = append(result.Slots, allocatedSlot{Slot: s.Index + 1, Item: s.Item})
			}

			out := cmd.OutOrStdout()
			if ok, err := util.PrintStructured(out, opts.output, result); ok {
				return err
			}

			tw := util.NewTabWriter(out)
			fmt.Fprintln(tw, "SLOT\tITEM\tORDINAL")
			for _, s := range result.Slots {
				if s.Item == nil {
					fmt.Fprintf(tw, "%d\t-\t\n", s.Slot)
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Slot, itemLabel(*s.Item), ordinal(s.Item.Ordinal))
			}
			tw.Flush()

			fmt.Fprintf(out, "\n%d of %d slots filled\n", result.Filled, size)
			if len(grid.Dropped) > 0 {
				fmt.Fprintf(out, "Dropped: %s\n", itemLabels(grid.Dropped))
			}
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&size, "size", rotation.DefaultGridSize, "number of grid slots")
	return cmd
}

type conflictView struct {
	Ordinal int      `json:"ordinal"`
	Items   []string `json:"items"`
}

func newGridConflictsCmd() *cobra.Command {
	opts := &gridOptions{}

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List ordinals requested by more than one item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.load(cmd)
			if err != nil {
				return err
			}

			conflicts := rotation.DetectConflicts(items)
			views := make([]conflictView, 0, len(conflicts))
			for _, c := range conflicts {
				v := conflictView{Ordinal: c.Ordinal}
				for _, it := range c.Items {
					v.Items = append(v.Items, it.ID)
				}
				views = append(views, v)
			}

			out := cmd.OutOrStdout()
			if ok, err := util.PrintStructured(out, opts.output, views); ok {
				return err
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No conflicts")
				return nil
			}

			tw := util.NewTabWriter(out)
			fmt.Fprintln(tw, "ORDINAL\tWINNER\tDISPLACED")
			for _, c := range conflicts {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", c.Ordinal, itemLabel(c.Items[0]), itemLabels(c.Items[1:]))
			}
			tw.Flush()
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func newGridSuggestCmd() *cobra.Command {
	opts := &gridOptions{}
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest free ordinals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.load(cmd)
			if err != nil {
				return err
			}

			suggestions := rotation.SuggestOrdinals(items, limit)

			out := cmd.OutOrStdout()
			if ok, err := util.PrintStructured(out, opts.output, suggestions); ok {
				return err
			}
			parts := make([]string, len(suggestions))
			for i, n := range suggestions {
				parts[i] = strconv.Itoa(n)
			}
			fmt.Fprintf(out, "Free ordinals: %s\n", strings.Join(parts, ", "))
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&limit, "limit", rotation.DefaultSuggestions, "number of suggestions")
	return cmd
}

func newGridValidateCmd() *cobra.Command {
	opts := &gridOptions{}
	var (
		position int
		itemID   string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether an ordinal is free",
		Example: `  # Can a new item take position 7?
  wpanelctl grid validate -f items.yaml --ordinal=7

  # Can item "picanha" move to position 3?
  wpanelctl grid validate -f items.yaml --ordinal=3 --item=picanha`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := util.LoadItems(opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			warning, err := rotation.ValidateOrdinal(items, position, itemID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			fmt.Fprintf(out, "Ordinal %d is available\n", position)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "items file (YAML or JSON, - for stdin)")
	cmd.Flags().IntVar(&position, "ordinal", 0, "ordinal to check (required)")
	cmd.Flags().StringVar(&itemID, "item", "", "id of the item being moved, ignored when checking")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("ordinal")
	return cmd
}

type pageResult struct {
	Page      int             `json:"page"`
	PageCount int             `json:"pageCount"`
	Items     []rotation.Item `json:"items"`
}

func newGridPageCmd() *cobra.Command {
	opts := &gridOptions{}
	var page, size int

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show one page of a paged board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1")
			}
			items, err := opts.load(cmd)
			if err != nil {
				return err
			}

			view := rotation.Page(items, page-1, size)
			result := pageResult{Page: view.Page + 1, PageCount: view.PageCount, Items: view.Items}
			if view.PageCount == 0 {
				result.Page = 0
			}

			out := cmd.OutOrStdout()
			if ok, err := util.PrintStructured(out, opts.output, result); ok {
				return err
			}
			if view.PageCount == 0 {
				fmt.Fprintln(out, "No items")
				return nil
			}

			fmt.Fprintf(out, "Page %d of %d\n", result.Page, result.PageCount)
			printItems(out, view.Items)
			return nil
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number, wraps past the last page")
	cmd.Flags().IntVar(&size, "size", rotation.DefaultPageSize, "items per page")
	return cmd
}

func printItems(w io.Writer, items []rotation.Item) {
	tw := util.NewTabWriter(w)
	defer tw.Flush()

	fmt.Fprintln(tw, "ITEM\tORDINAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\n", itemLabel(it), ordinal(it.Ordinal))
	}
}

func itemLabel(it rotation.Item) string {
	if it.Title != "" && it.Title != it.ID {
		return it.Title + " [" + it.ID + "]"
	}
	return it.ID
}

func itemLabels(items []rotation.Item) string {
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = itemLabel(it)
	}
	return strings.Join(labels, ", ")
}
