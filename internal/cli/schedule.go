package cli

import (
	"fmt"

	"overlay-quiz-service/internal/infra/memory"
	"overlay-quiz-service/internal/schedule"

	"github.com/spf13/cobra"
)

// NewScheduleCmd prints the timeline each question set in a YAML file would get.
func NewScheduleCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute and validate question timelines from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, err := memory.ReadQuestionSetsFile(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, set := range sets {
				tl, err := schedule.BuildSet(set)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", set.VideoID, err)
					continue
				}
				fmt.Fprintf(out, "%s (%gs, %s):\n", set.VideoID, tl.VideoDurationSeconds, set.Placement.Mode)
				for _, q := range tl.Questions {
					fmt.Fprintf(out, "  %-12s %8.2f -> %8.2f\n", q.QuestionID, q.Start, q.End)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d question sets failed to schedule", failed, len(sets))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "questions.yaml", "YAML file with a questionSets list")
	return cmd
}
