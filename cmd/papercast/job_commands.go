package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"papercast/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var textBackend string
	var audioBackend string
	var noAudio bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <arxiv-reference>",
		Short: "Submit a paper for podcast generation",
		Args:  requireSingleArg("reference"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}

			generateAudio := !noAudio
			accepted, err := c.Submit(cmd.Context(), api.SubmitRequest{
				SourceReference: args[0],
				TextBackend:     textBackend,
				AudioBackend:    audioBackend,
				GenerateAudio:   &generateAudio,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job submitted: %s\n", accepted.JobID)
			if !watch {
				return nil
			}
			return watchJob(cmd, c, accepted.JobID)
		},
	}

	cmd.Flags().StringVar(&textBackend, "text-backend", "", "Text generation backend (groq, openai, openrouter, ollama)")
	cmd.Flags().StringVar(&audioBackend, "audio-backend", "", "Audio synthesis backend")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Stop after the transcript; skip speech synthesis")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Stream progress until the job finishes")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Stream live progress for a job",
		Args:  requireSingleArg("job id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			return watchJob(cmd, c, args[0])
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the latest snapshot for a job",
		Args:  requireSingleArg("job id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			snap, err := c.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s\n", snap.JobID)
			fmt.Fprintf(out, "Status:   %s\n", snap.Status)
			fmt.Fprintf(out, "Progress: %s\n", strings.TrimSpace(formatProgress(snap.Progress)))
			fmt.Fprintf(out, "Stage:    %s\n", stageLabel(snap.Stage))
			fmt.Fprintf(out, "Message:  %s\n", snap.Message)
			if snap.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", snap.Error)
			}
			if snap.Result != nil {
				fmt.Fprintf(out, "Title:    %s\n", snap.Result.Title)
				if snap.Result.AudioRef != "" {
					fmt.Fprintf(out, "Audio:    %s\n", snap.Result.AudioRef)
				}
			}
			return nil
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List all jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			snaps, err := c.Jobs(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(snaps))
			for _, snap := range snaps {
				title := "-"
				if snap.Result != nil && snap.Result.Title != "" {
					title = snap.Result.Title
				}
				rows = append(rows, []string{
					snap.JobID,
					snap.Status,
					strings.TrimSpace(formatProgress(snap.Progress)),
					stageLabel(snap.Stage),
					title,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Progress", "Stage", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// clientStreamer is the slice of the daemon client watchJob needs.
type clientStreamer interface {
	Stream(ctx context.Context, id string, handle func(api.SnapshotPayload) error) error
}

// watchJob streams snapshots until the job terminates, then reports the
// outcome.
func watchJob(cmd *cobra.Command, c clientStreamer, jobID string) error {
	out := cmd.OutOrStdout()
	printer := newProgressPrinter(out)

	var last api.SnapshotPayload
	err := c.Stream(cmd.Context(), jobID, func(snap api.SnapshotPayload) error {
		printer.print(snap)
		last = snap
		return nil
	})
	if err != nil {
		return err
	}

	switch last.Status {
	case "done":
		if last.Result != nil && last.Result.AudioRef != "" {
			fmt.Fprintf(out, "Audio artifact: %s\n", last.Result.AudioRef)
		}
		return nil
	case "error":
		return fmt.Errorf("job failed: %s", last.Error)
	default:
		return fmt.Errorf("stream ended before job %s finished", jobID)
	}
}
