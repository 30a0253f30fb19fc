package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/publish"
)

var (
	publishTitle    string
	publishBody     string
	publishTags     []string
	publishVideo    string
	publishPrivate  bool
	publishSchedule string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish or schedule a video note",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		var scheduleAt time.Time
		if publishSchedule != "" {
			scheduleAt, err = time.ParseInLocation("2006-01-02 15:04:05", publishSchedule, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --schedule, want \"2006-01-02 15:04:05\": %w", err)
			}
		}

		outcome, err := app.workflow.Run(cmd.Context(), publish.Request{
			Title:      publishTitle,
			Body:       publishBody,
			Tags:       publishTags,
			MediaPath:  publishVideo,
			Private:    publishPrivate,
			ScheduleAt: scheduleAt,
		})
		if err != nil {
			return err
		}

		switch outcome.Status {
		case publish.StatusScheduled:
			fmt.Printf("Scheduled %q for %s\n", outcome.Title, outcome.ScheduleTime)
		default:
			fmt.Printf("Published %q\n", outcome.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "Note title")
	publishCmd.Flags().StringVar(&publishBody, "body", "", "Note body text")
	publishCmd.Flags().StringSliceVar(&publishTags, "tag", nil, "Tag to attach (repeatable)")
	publishCmd.Flags().StringVar(&publishVideo, "video", "", "Path to the video file")
	publishCmd.Flags().BoolVar(&publishPrivate, "private", false, "Publish as private")
	publishCmd.Flags().StringVar(&publishSchedule, "schedule", "", `Publish later at "2006-01-02 15:04:05" local time`)
	publishCmd.MarkFlagRequired("title")
	publishCmd.MarkFlagRequired("body")
	publishCmd.MarkFlagRequired("video")
}
