package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/query"
	"github.com/alfredjeanlab/adminkit/internal/rest"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list <entity>",
	Short:   "List entries with their references resolved",
	GroupID: "entries",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		all, _ := cmd.Flags().GetBool("all")
		sortField, _ := cmd.Flags().GetString("sort")
		sortDir, _ := cmd.Flags().GetString("dir")
		filterArgs, _ := cmd.Flags().GetStringArray("filter")

		view, err := entityView(args[0], model.ViewList)
		if err != nil {
			return err
		}
		filters, err := parseAssignments(filterArgs)
		if err != nil {
			return err
		}

		q := query.ListQuery{Page: page, Filters: filters}
		if all {
			q.Page = rest.NoPagination
		}
		if sortField != "" {
			q.SortField = view.Name() + "." + sortField
			q.SortDir = strings.ToUpper(sortDir)
		}

		result, err := reader.LoadList(cmd.Context(), view, datastore.New(), q)
		if err != nil {
			return userError(view, err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result.Entries)
		}
		if err := printEntryTable(cmd.OutOrStdout(), view.Fields(), result.Entries); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted(fmt.Sprintf("\n%d entries (%d total)", len(result.Entries), result.TotalItems)))
		return nil
	},
}

func init() {
	listCmd.Flags().Int("page", 1, "page number")
	listCmd.Flags().Bool("all", false, "fetch every entry without pagination")
	listCmd.Flags().String("sort", "", "field to sort on")
	listCmd.Flags().String("dir", query.SortASC, "sort direction (ASC or DESC)")
	listCmd.Flags().StringArrayP("filter", "f", nil, "filter as key=value (repeatable)")
}
