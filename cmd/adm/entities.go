package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/model"
)

// entityView returns the view of type t of the named entity, failing when
// the entity is unknown or the view disabled.
func entityView(name string, t model.ViewType) (*model.View, error) {
	e, ok := application.Entity(name)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (known: %s)", name, strings.Join(application.EntityNames(), ", "))
	}
	v := e.View(t)
	if !v.Enabled() {
		return nil, fmt.Errorf("%s has no enabled %s", name, t)
	}
	return v, nil
}

// userError turns a failed operation on view into the message configured
// for it.
func userError(view *model.View, err error) error {
	return errors.New(application.ErrorMessage(view, err))
}

type entitySummary struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Identifier string   `json:"identifier"`
	ReadOnly   bool     `json:"read_only,omitempty"`
	Singleton  bool     `json:"singleton,omitempty"`
	Views      []string `json:"views"`
}

var entitiesCmd = &cobra.Command{
	Use:     "entities",
	Short:   "List the entities of the schema and their enabled views",
	GroupID: "entries",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out []entitySummary
		for _, e := range application.Entities() {
			s := entitySummary{
				Name:       e.Name(),
				Label:      e.Label(),
				Identifier: e.Identifier().Name(),
				ReadOnly:   e.ReadOnly(),
				Singleton:  e.Singleton(),
				Views:      []string{},
			}
			for _, v := range e.Views() {
				if v.Enabled() {
					s.Views = append(s.Views, string(v.Type()))
				}
			}
			out = append(out, s)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), out)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLABEL\tID\tVIEWS")
		for _, s := range out {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Label, s.Identifier, strings.Join(s.Views, ","))
		}
		return w.Flush()
	},
}
