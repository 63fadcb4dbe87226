package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ragbuilder/modelservice/pkg/model"
)

func newDeindexCommand(root *rootOptions) *cobra.Command {
	var ids []string
	var all bool
	var filters []string

	cmd := &cobra.Command{
		Use:   "deindex",
		Short: "Remove documents from the namespace",
		Long: "Remove documents by vector id, by metadata filter, or all at once.\n" +
			"Exactly one of --id, --filter, or --all must be given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := root.buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}

			err = app.model.Deindex(ctx, model.DeindexRequest{
				Namespace: root.namespace,
				IDs:       ids,
				DeleteAll: all,
				Filter:    filter,
			})
			if err != nil {
				return err
			}

			color.Green("✓ Deindex complete\n")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ids, "id", nil, "vector id to remove, repeatable")
	cmd.Flags().BoolVar(&all, "all", false, "remove every vector in the namespace")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "metadata filter as key=value, repeatable")
	return cmd
}
