package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/actorlab/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Inspect a persisted replay trace",
}

var replayShowCmd = &cobra.Command{
	Use:   "show <trace-file>",
	Short: "Print every schedule and random pick recorded in a trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplayShow,
}

func init() {
	replayCmd.AddCommand(replayShowCmd)
}

func runReplayShow(cmd *cobra.Command, args []string) error {
	src, err := replay.Load(args[0])
	if err != nil {
		return err
	}

	schedule := src.SchedulePicks()
	random := src.RandomPicks()

	if outputFormat == "json" {
		return outputJSON(struct {
			SchedulePicks []string `json:"schedule_picks"`
			RandomPicks   []int    `json:"random_picks"`
		}{schedule, random})
	}

	fmt.Printf("%d schedule picks, %d random picks\n\n", len(schedule), len(random))

	for i, opID := range schedule {
		fmt.Printf("%4d  schedule  %s\n", i, opID)
	}
	for i, v := range random {
		fmt.Printf("%4d  random    %d\n", i, v)
	}

	return nil
}
