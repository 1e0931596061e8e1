package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/entrhq/securedocs-e2e/pkg/cases"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var filter suite.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := suite.NewRegistry()
			if err := cases.Register(reg, cases.DefaultData()); err != nil {
				return err
			}
			selected, err := reg.Select(filter)
			if err != nil {
				return err
			}
			return printCases(cmd.OutOrStdout(), selected)
		},
	}

	cmd.Flags().StringArrayVar(&filter.Categories, "category", nil, "List only this category (repeatable)")
	cmd.Flags().StringArrayVar(&filter.Include, "case", nil, "List only cases matching this glob (repeatable)")
	return cmd
}

func printCases(out io.Writer, selected []suite.Case) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tACCOUNT\tDESCRIPTION")
	for _, c := range selected {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID(), c.Account, c.Description)
	}
	return w.Flush()
}
