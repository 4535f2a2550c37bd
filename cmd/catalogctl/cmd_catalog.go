package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	catalogSvc "quickref/internal/domain/services/catalog"
	"quickref/internal/service/catalog"
)

func (c *cli) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [category]",
		Short: "List the subcategories and documents of a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			listing, err := c.app.Catalog.ListCategory(cmd.Context(), catalog.ParsePath(raw))
			if err != nil {
				return err
			}
			for _, child := range listing.Children {
				fmt.Fprintf(c.out, "%s/\n", child)
			}
			for _, file := range listing.Files {
				fmt.Fprintln(c.out, file)
			}
			return nil
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add <file.pdf>",
		Short: "Register a PDF under a category and render its pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reg, err := c.app.Catalog.RegisterDocument(cmd.Context(), &catalogSvc.RegisterDocumentRequest{
				Category: category,
				Filename: filepath.Base(args[0]),
				Source:   source,
			})
			if err != nil {
				return err
			}

			verb := "already registered"
			if reg.Added {
				verb = "registered"
			}
			fmt.Fprintf(c.out, "%s %s under %s (%d pages)\n",
				verb, reg.DocumentID, catalog.JoinPath(reg.Path), len(reg.Artifacts))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "slash separated category (default MISC)")
	return cmd
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <category> <filename>",
		Short: "Unregister a document from a category and delete its pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Catalog.RemoveDocument(cmd.Context(), catalog.ParsePath(args[0]), args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed %s from %s\n", args[1], args[0])
			return nil
		},
	}
}

func (c *cli) rmdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdir <category>",
		Short: "Delete a category, its subcategories and their pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evicted, err := c.app.Catalog.RemoveSubtree(cmd.Context(), catalog.ParsePath(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed %s (%d documents)\n", args[0], len(evicted))
			for _, id := range evicted {
				fmt.Fprintf(c.out, "  %s\n", id)
			}
			return nil
		},
	}
}

func (c *cli) renderCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "render <category> <filename>",
		Short: "Render missing pages of a registered document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if force {
				if _, err := c.app.Renders.Evict(args[1]); err != nil {
					return err
				}
			}
			opened, err := c.app.Catalog.OpenDocument(cmd.Context(), catalog.ParsePath(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s: %d pages, %s\n", opened.DocumentID, len(opened.Artifacts), opened.Orientation)
			for _, name := range opened.Artifacts {
				fmt.Fprintf(c.out, "  %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete existing pages and render again")
	return cmd
}
