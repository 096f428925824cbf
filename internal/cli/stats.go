package cli

import (
	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт группу команд статистики.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run statistics",
	}

	cmd.AddCommand(
		newStatsShowCmd(clientFn, outputFn),
		newStatsSelectorsCmd(clientFn, outputFn),
	)

	return cmd
}

func newStatsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show aggregate statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stats, err := client.GetStats()
			if err != nil {
				return err
			}

			out.FlowCounts(stats)
			return nil
		},
	}
}

func newStatsSelectorsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "selectors",
		Short: "Show selector reliability, worst first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			stats, err := client.GetStats()
			if err != nil {
				return err
			}

			out.Selectors(stats)
			return nil
		},
	}
}

// NewJobCmd создаёт группу команд планировщика.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Scheduler jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scheduler jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs()
			if err != nil {
				return err
			}

			out.Jobs(jobs)
			return nil
		},
	})

	return cmd
}

// NewActionCmd создаёт группу команд реестра действий.
func NewActionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Action registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			names, err := client.ListActions()
			if err != nil {
				return err
			}

			out.Actions(names)
			return nil
		},
	})

	return cmd
}
