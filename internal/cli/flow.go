package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Robota/internal/domain"
	"github.com/shaiso/Robota/internal/engine"
)

// NewFlowCmd создаёт группу команд для управления flows.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowValidateCmd(outputFn),
		newFlowUpdateCmd(clientFn, outputFn),
		newFlowPublishCmd(clientFn, outputFn),
		newFlowApproveCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows()
			if err != nil {
				return err
			}

			out.Flows(flows)
			return nil
		},
	}
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show flow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flow, err := client.GetFlow(args[0])
			if err != nil {
				return err
			}

			// Документ flow всегда выводится как JSON.
			out.JSON(flow)
			return nil
		},
	}
}

func newFlowValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate flow document locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read flow file: %w", err)
			}
			flow, err := domain.ParseFlow(data)
			if err != nil {
				return err
			}
			if err := engine.Validate(flow); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow is valid: %s (%d steps)", flow.Name(), len(flow.Steps)))
			return nil
		},
	}
}

func newFlowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Replace flow document from file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read flow file: %w", err)
			}
			// Файл может быть JSON или YAML; API принимает JSON.
			flow, err := domain.ParseFlow(data)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(flow)
			if err != nil {
				return fmt.Errorf("failed to encode flow: %w", err)
			}

			if _, err := client.UpdateFlow(args[0], json.RawMessage(payload)); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow updated: %s", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to flow file, JSON or YAML (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newFlowPublishCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "publish NAME",
		Short: "Mark flow as published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.PublishFlow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow published: %s", args[0]))
			return nil
		},
	}
}

func newFlowApproveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "approve NAME",
		Short: "Mark flow as approved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ApproveFlow(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow approved: %s", args[0]))
			return nil
		},
	}
}
