package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ragbuilder/modelservice/pkg/model"
)

func newQueryCommand(root *rootOptions) *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Retrieve documents for a query",
		Args:  cobra.ExactArgs(1),
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

			spinner := newSpinner(" Retrieving...")
			docs, err := app.model.Invoke(ctx, args[0], model.InvokeOptions{
				Namespace: root.namespace,
				Filters:   filter,
			})
			_ = spinner.Finish()
			if err != nil {
				return err
			}

			if len(docs) == 0 {
				color.Yellow("No matching documents\n")
				return nil
			}

			for i, doc := range docs {
				color.Cyan("\n[%d] score=%.4f", i+1, doc.Score)
				if source, ok := doc.Metadata["source"]; ok {
					color.Blue("    source: %v", source)
				}
				fmt.Println(doc.PageContent)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "metadata filter as key=value, repeatable")
	return cmd
}

func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filter[key] = value
	}
	return filter, nil
}
