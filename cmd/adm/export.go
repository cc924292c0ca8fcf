package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/datastore"
	"github.com/alfredjeanlab/adminkit/internal/model"
	"github.com/alfredjeanlab/adminkit/internal/query"
	"github.com/alfredjeanlab/adminkit/internal/rest"
	"github.com/alfredjeanlab/adminkit/internal/snapshot"
	"github.com/alfredjeanlab/adminkit/internal/store/postgres"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

// refreshStore loads every entry of the list view of each entity into
// store, with references resolved.
func refreshStore(store *datastore.DataStore, entities []string) snapshot.RefreshFunc {
	return func(ctx context.Context) error {
		for _, name := range entities {
			view, err := entityView(name, model.ViewList)
			if err != nil {
				return err
			}
			if _, err := reader.LoadList(ctx, view, store, query.ListQuery{Page: rest.NoPagination}); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
		}
		return nil
	}
}

// exportDestinations builds the destinations selected by the export flags.
// The returned cleanup closes what the destinations opened.
func exportDestinations(cmd *cobra.Command) ([]snapshot.Destination, func(), error) {
	file, _ := cmd.Flags().GetString("file")
	toS3, _ := cmd.Flags().GetBool("s3")
	gitRepo, _ := cmd.Flags().GetString("git")
	gitFile, _ := cmd.Flags().GetString("git-file")
	gitBranch, _ := cmd.Flags().GetString("git-branch")
	save, _ := cmd.Flags().GetString("save")

	var dests []snapshot.Destination
	cleanup := func() {}

	if file != "" {
		dests = append(dests, snapshot.NewFileDestination(file))
	}
	if toS3 {
		if cfg.ExportS3Bucket == "" {
			return nil, cleanup, fmt.Errorf("--s3 needs ADMIN_EXPORT_S3_BUCKET")
		}
		d, err := snapshot.NewS3Destination(cmd.Context(), snapshot.S3Options{
			Bucket:   cfg.ExportS3Bucket,
			Key:      cfg.ExportS3Key,
			Region:   cfg.ExportS3Region,
			Endpoint: cfg.ExportS3Endpoint,
		})
		if err != nil {
			return nil, cleanup, err
		}
		dests = append(dests, d)
	}
	if gitRepo != "" {
		dests = append(dests, snapshot.NewGitDestination(gitRepo, gitFile, gitBranch))
	}
	if save != "" {
		if cfg.DatabaseURL == "" {
			return nil, cleanup, fmt.Errorf("--save needs ADMIN_DATABASE_URL")
		}
		s, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connecting to snapshot store: %w", err)
		}
		cleanup = func() { s.Close() }
		dests = append(dests, snapshot.NewStoreDestination(s, save))
	}
	if len(dests) == 0 {
		dests = append(dests, snapshot.NewFileDestination("snapshot.jsonl"))
	}
	return dests, cleanup, nil
}

var exportCmd = &cobra.Command{
	Use:     "export [entity...]",
	Short:   "Export entries as JSONL to files, S3, git or the snapshot store",
	GroupID: "data",
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")

		entities := args
		if len(entities) == 0 {
			for _, v := range application.ViewsOfType(model.ViewList) {
				entities = append(entities, v.Entity().Name())
			}
		}

		dests, cleanup, err := exportDestinations(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		store := datastore.New()
		sched := snapshot.NewScheduler(store, refreshStore(store, entities), dests, every, publisher, logger)

		if every <= 0 {
			if err := sched.RunOnce(cmd.Context()); err != nil {
				return err
			}
			for _, d := range dests {
				fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("exported to "+d.String()))
			}
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		sched.Start()
		logger.Info("exporting periodically", "interval", every, "destinations", len(dests))
		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

func init() {
	exportCmd.Flags().String("file", "", "write the export to this file")
	exportCmd.Flags().Bool("s3", false, "upload the export to ADMIN_EXPORT_S3_BUCKET")
	exportCmd.Flags().String("git", "", "commit the export into this git repository")
	exportCmd.Flags().String("git-file", "snapshot.jsonl", "file path inside the git repository")
	exportCmd.Flags().String("git-branch", "main", "git branch to commit to")
	exportCmd.Flags().String("save", "", "save the export as a named snapshot in ADMIN_DATABASE_URL")
	exportCmd.Flags().Duration("every", 0, "repeat the export at this interval until interrupted")
}
