package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

// entryValues merges the --data JSON object and the --set assignments, the
// assignments winning.
func entryValues(cmd *cobra.Command) (map[string]any, error) {
	data, _ := cmd.Flags().GetString("data")
	sets, _ := cmd.Flags().GetStringArray("set")

	values := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &values); err != nil {
			return nil, fmt.Errorf("--data: %w", err)
		}
	}
	assigned, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range assigned {
		values[k] = v
	}
	return values, nil
}

// payloadFor validates entry against view and transforms it into the REST
// payload.
func payloadFor(view *model.View, entry *model.Entry) (map[string]any, error) {
	if err := view.Validate(entry); err != nil {
		return nil, err
	}
	return view.TransformEntry(entry)
}

var createCmd = &cobra.Command{
	Use:     "create <entity>",
	Short:   "Create an entry",
	GroupID: "entries",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := entityView(args[0], model.ViewCreate)
		if err != nil {
			return err
		}
		values, err := entryValues(cmd)
		if err != nil {
			return err
		}

		entry := model.CreateForFields(view.Fields(), view.Entity().Name())
		for k, v := range values {
			entry.Values[k] = v
		}
		payload, err := payloadFor(view, entry)
		if err != nil {
			return err
		}

		created, err := writer.CreateOne(cmd.Context(), view, payload)
		if err != nil {
			return userError(view, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), created)
		}
		id := created[view.Identifier().Name()]
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(fmt.Sprintf("created %s %s", view.Entity().Name(), formatValue(id))))
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <entity> <id>",
	Short:   "Update an entry",
	GroupID: "entries",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := entityView(args[0], model.ViewEdit)
		if err != nil {
			return err
		}
		values, err := entryValues(cmd)
		if err != nil {
			return err
		}
		id := args[1]

		raw, err := reader.GetOne(cmd.Context(), view.Entity(), view.Type(), id, view.Identifier().Name(), view.URL(id))
		if err != nil {
			return userError(view, err)
		}
		entry, err := view.MapEntry(raw)
		if err != nil {
			return err
		}
		for k, v := range values {
			entry.Values[k] = v
		}
		payload, err := payloadFor(view, entry)
		if err != nil {
			return err
		}

		updated, err := writer.UpdateOne(cmd.Context(), view, payload, id)
		if err != nil {
			return userError(view, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), updated)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(fmt.Sprintf("updated %s %s", view.Entity().Name(), id)))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().String("data", "", "entry values as a JSON object")
		c.Flags().StringArrayP("set", "s", nil, "field value as key=value (repeatable)")
	}
}
