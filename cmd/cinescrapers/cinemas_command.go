package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cinescrapers/internal/cinema"
)

func newCinemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "cinemas",
		Short:       "List the known cinemas",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := cinema.Default()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, registry.Len())
			for _, c := range registry.All() {
				rows = append(rows, []string{c.Shortcode, c.Name, c.Address, c.Postcode})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Code", "Name", "Address", "Postcode"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
