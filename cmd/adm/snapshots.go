package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/snapshot"
	"github.com/alfredjeanlab/adminkit/internal/store"
	"github.com/alfredjeanlab/adminkit/internal/store/postgres"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

var snapshotStore store.Store

var snapshotsCmd = &cobra.Command{
	Use:     "snapshots",
	Short:   "Manage snapshots saved with export --save",
	GroupID: "data",
	// Snapshots only need the database, not the API or the schema.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("ADMIN_DATABASE_URL is required")
		}
		cfg = c
		logger = newLogger(c.LogLevel)
		s, err := postgres.New(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to snapshot store: %w", err)
		}
		snapshotStore = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if snapshotStore != nil {
			snapshotStore.Close()
		}
	},
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snaps, err := snapshotStore.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snaps)
		}
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no snapshots")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tBUCKETS\tENTRIES\tCREATED")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.Name, s.BucketCount, s.EntryCount, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the buckets of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buckets, err := snapshotStore.LoadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		names := make([]string, 0, len(buckets))
		for name := range buckets {
			names = append(names, name)
		}
		sort.Strings(names)

		if jsonOutput {
			counts := make(map[string]int, len(buckets))
			for name, entries := range buckets {
				counts[name] = len(entries)
			}
			return printJSON(cmd.OutOrStdout(), counts)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUCKET\tENTRIES")
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%d\n", name, len(buckets[name]))
		}
		return w.Flush()
	},
}

var snapshotsRestoreCmd = &cobra.Command{
	Use:   "restore <name> <file>",
	Short: "Write a saved snapshot back out as a JSONL export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		buckets, err := snapshotStore.LoadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ds := datastore.New()
		ds.Restore(buckets)

		dest := snapshot.NewFileDestination(args[1])
		sched := snapshot.NewScheduler(ds, nil, []snapshot.Destination{dest}, 0, nil, logger)
		if err := sched.RunOnce(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(fmt.Sprintf("restored %s to %s", args[0], dest)))
		return nil
	},
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := snapshotStore.DeleteSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("deleted snapshot "+args[0]))
		return nil
	},
}

func init() {
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsRestoreCmd)
	snapshotsCmd.AddCommand(snapshotsDeleteCmd)
}
