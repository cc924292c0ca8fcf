package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/query"
)

var showCmd = &cobra.Command{
	Use:     "show <entity> <id>",
	Short:   "Show one entry with its references and referenced lists",
	GroupID: "entries",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sortArg, _ := cmd.Flags().GetString("sort")
		sortDir, _ := cmd.Flags().GetString("dir")

		view, err := entityView(args[0], model.ViewShow)
		if err != nil {
			return err
		}

		q := query.DetailQuery{ID: args[1]}
		if sortArg != "" {
			field, err := listSortField(view, sortArg)
			if err != nil {
				return err
			}
			q.SortField, q.SortDir = field, strings.ToUpper(sortDir)
		}

		store := datastore.New()
		entry, err := reader.LoadOne(cmd.Context(), view, store, q)
		if err != nil {
			return userError(view, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), entry)
		}
		return printEntry(cmd.OutOrStdout(), view.Fields(), entry, store)
	},
}

// listSortField turns "<list>.<field>" into the datagrid-prefixed sort
// field of the referenced list named list.
func listSortField(view *model.View, arg string) (string, error) {
	list, field, ok := strings.Cut(arg, ".")
	if !ok || field == "" {
		return "", fmt.Errorf("--sort wants <list>.<field>, got %q", arg)
	}
	f := view.Field(list)
	if f == nil || f.Kind() != model.KindReferencedList {
		return "", fmt.Errorf("%s is not a referenced list of %s", list, view.Name())
	}
	return f.DatagridName() + "." + field, nil
}

func init() {
	showCmd.Flags().String("sort", "", "sort a referenced list, as <list>.<field>")
	showCmd.Flags().String("dir", query.SortASC, "sort direction (ASC or DESC)")
}
