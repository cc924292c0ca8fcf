package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <entity> <id>...",
	Short:   "Delete one entry, or several as a batch",
	GroupID: "entries",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, ids := args[0], args[1:]
		out := cmd.OutOrStdout()

		if len(ids) == 1 {
			view, err := entityView(name, model.ViewDelete)
			if err != nil {
				return err
			}
			if err := writer.DeleteOne(cmd.Context(), view, ids[0]); err != nil {
				return userError(view, err)
			}
			fmt.Fprintln(out, ui.RenderSuccess(fmt.Sprintf("deleted %s %s", name, ids[0])))
			return nil
		}

		view, err := entityView(name, model.ViewBatchDelete)
		if err != nil {
			return err
		}
		result := writer.BatchDelete(cmd.Context(), view, parseIDs(ids))
		if jsonOutput {
			if err := printJSON(out, map[string]any{
				"deleted":     result.Deleted,
				"failed":      result.FailedIDs(),
				"single_call": result.SingleCall,
			}); err != nil {
				return err
			}
		} else {
			for _, id := range result.Deleted {
				fmt.Fprintln(out, ui.RenderSuccess(fmt.Sprintf("deleted %s %s", name, formatValue(id))))
			}
			for _, f := range result.Failed {
				fmt.Fprintln(out, ui.RenderError(fmt.Sprintf("failed %s %s: %s", name, formatValue(f.ID), application.ErrorMessage(view, f.Err))))
			}
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d deletes failed", len(result.Failed), len(ids))
		}
		return nil
	},
}
