package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/publish"
)

var (
	taskTime  string
	taskTitle string
	taskVideo string
	taskDesc  string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the scheduled task queue",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		tasks, err := app.tasks.List()
		if err != nil {
			return err
		}
		for i, task := range tasks {
			fmt.Printf("%d  %s  %-7s  %s\n", i, task.Time, task.Status, task.Title)
		}
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Queue a video note for later submission",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		if _, err := time.ParseInLocation("2006-01-02 15:04:05", taskTime, time.Local); err != nil {
			return fmt.Errorf("invalid --at, want \"2006-01-02 15:04:05\": %w", err)
		}

		err = app.tasks.Append(publish.Task{
			Time:      taskTime,
			Title:     taskTitle,
			VideoPath: taskVideo,
			Desc:      taskDesc,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Queued %q for %s\n", taskTitle, taskTime)
		return nil
	},
}

var tasksRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit every task whose time has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		runner := publish.NewTaskRunner(app.tasks, app.client,
			publish.WithRunnerLogger(app.logger))
		posted, err := runner.RunDue(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Submitted %d task(s)\n", posted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksRunCmd)
	tasksAddCmd.Flags().StringVar(&taskTime, "at", "", `Submission time "2006-01-02 15:04:05" local`)
	tasksAddCmd.Flags().StringVar(&taskTitle, "title", "", "Note title")
	tasksAddCmd.Flags().StringVar(&taskVideo, "video", "", "Path to the video file")
	tasksAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Note description")
	tasksAddCmd.MarkFlagRequired("at")
	tasksAddCmd.MarkFlagRequired("title")
	tasksAddCmd.MarkFlagRequired("video")
}
