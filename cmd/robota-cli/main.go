// Robota CLI — инструмент командной строки для управления
// flows, запусками и статистикой через HTTP API.
//
// Использование:
//
//	robota [--api-url URL] [--role ROLE] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	flow    Управление flows
//	run     Управление запусками
//	job     Jobs планировщика
//	action  Реестр действий
//	stats   Статистика запусков
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Robota/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var role string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "robota",
		Short:         "Robota CLI — desktop automation runtime tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&role, "role", "operator", "Actor role for RBAC checks")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, role) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewJobCmd(clientFn, outputFn),
		cli.NewActionCmd(clientFn, outputFn),
		cli.NewStatsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
