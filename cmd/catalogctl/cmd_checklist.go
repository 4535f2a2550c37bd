package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quickref/internal/service/catalog"
)

func (c *cli) checklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Show or edit checklists",
	}
	cmd.AddCommand(c.checklistShowCmd(), c.checklistSetCmd())
	return cmd
}

func (c *cli) checklistShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Print a checklist group or the items of a checklist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				top, err := c.app.Checklists.TopLevel(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range top {
					fmt.Fprintf(c.out, "%s/\n", name)
				}
				return nil
			}

			entry, err := c.app.Checklists.Lookup(cmd.Context(), catalog.ParsePath(args[0]))
			if err != nil {
				return err
			}
			if entry.IsList {
				for i, item := range entry.Items {
					fmt.Fprintf(c.out, "%2d. %s\n", i+1, item)
				}
				return nil
			}
			for _, name := range entry.Subcategories {
				fmt.Fprintf(c.out, "%s/\n", name)
			}
			return nil
		},
	}
}

func (c *cli) checklistSetCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set <path>",
		Short: "Replace a checklist with the lines of a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text []byte
			var err error
			if file == "" || file == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = os.ReadFile(file)
			}
			if err != nil {
				return err
			}

			entry, err := c.app.Checklists.Save(cmd.Context(), catalog.ParsePath(args[0]), string(text))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "saved %s (%d items)\n", args[0], len(entry.Items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read items from file instead of stdin")
	return cmd
}
