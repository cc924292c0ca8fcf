package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/events"
	"github.com/alfredjeanlab/adminkit/internal/hooks"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

// watchTopic returns the subject matching the events of entity, or every
// adminkit event when entity is empty.
func watchTopic(entity string) string {
	if entity == "" {
		return events.TopicAll
	}
	// admin.<kind>.<action>.<entity>
	return events.EntityTopic("admin.*.*", entity)
}

// printEvent prints one event as a line, or as raw JSON with --json.
func printEvent(w io.Writer, msg events.Message) error {
	if jsonOutput {
		_, err := fmt.Fprintln(w, string(msg.Data))
		return err
	}
	var body map[string]any
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		_, err := fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(msg.Topic), msg.Data)
		return err
	}
	detail := ""
	switch {
	case body["id"] != nil:
		detail = "id=" + formatValue(body["id"])
	case body["ids"] != nil:
		detail = "ids=" + formatValue(body["ids"])
	case body["destination"] != nil:
		detail = "destination=" + formatValue(body["destination"])
	}
	_, err := fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(msg.Topic), detail)
	return err
}

var watchCmd = &cobra.Command{
	Use:     "watch [entity]",
	Short:   "Stream write and export events from NATS",
	GroupID: "data",
	Args:    cobra.MaximumNArgs(1),
	// Watching only needs the NATS URL.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if c.NATSURL == "" {
			return fmt.Errorf("ADMIN_NATS_URL is required (or a remote with --nats)")
		}
		cfg = c
		logger = newLogger(c.LogLevel)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		entity := ""
		if len(args) == 1 {
			entity = args[0]
		}
		execCmd, _ := cmd.Flags().GetString("exec")
		execTimeout, _ := cmd.Flags().GetDuration("exec-timeout")
		var hook *hooks.Runner
		if execCmd != "" {
			hook = hooks.NewRunner(execCmd, execTimeout, logger)
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(watchTopic(entity))
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				if err := printEvent(cmd.OutOrStdout(), msg); err != nil {
					return err
				}
				if hook != nil {
					if res := hook.Run(ctx, msg); res.Err == nil && res.Output != "" {
						fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMuted(res.Output))
					}
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("exec", "", "run this shell command for every event (event JSON on stdin)")
	watchCmd.Flags().Duration("exec-timeout", hooks.DefaultTimeout, "timeout of the --exec command")
}
