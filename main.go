// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the main function that executes the readerclient
// command.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/calindra/readerclient/pkg/readerclient"
	"github.com/carlmjohnson/versioninfo"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

const DefaultGraphQLUrl = "http://localhost:8080/graphql"

var cmd = &cobra.Command{
	Use:     "readerclient",
	Short:   "readerclient queries reports from the reader API of a Cartesi Rollups node",
	Version: versioninfo.Short(),
}

var CompletionCmd = &cobra.Command{
	Use:                   "completion",
	Short:                 "Generate shell completion scripts",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cobra.CheckErr(cmd.Root().GenBashCompletion(os.Stdout))
		case "zsh":
			cobra.CheckErr(cmd.Root().GenZshCompletion(os.Stdout))
		case "fish":
			cobra.CheckErr(cmd.Root().GenFishCompletion(os.Stdout, true))
		case "powershell":
			cobra.CheckErr(cmd.Root().GenPowerShellCompletion(os.Stdout))
		}
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Query reports from the reader API",
}

type ReportsOpts struct {
	GraphQLUrl  string
	InputIndex  int
	ReportIndex int
	DecodeHex   bool
	JsonField   string
}

var (
	debug bool
	color bool
	opts  = &ReportsOpts{}
)

func markFlagRequired(cmd *cobra.Command, flagNames ...string) {
	for _, flagName := range flagNames {
		err := cmd.MarkFlagRequired(flagName)
		cobra.CheckErr(err)
	}
}

func addReportsSubcommands(reportsCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, optionally restricted to one input",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := readerclient.NewReportQueryClient(opts.GraphQLUrl, nil)
			var inputIndex *int
			if cmd.Flags().Changed("input-index") {
				inputIndex = &opts.InputIndex
			}
			reports, err := client.ListReports(ctx, inputIndex)
			if err != nil {
				slog.Error("List reports", "error", err)
				return err
			}
			slog.Info("Reports fetched", "count", len(reports))
			for _, report := range reports {
				payload, err := renderPayload(report.Payload)
				if err != nil {
					return err
				}
				fmt.Printf("input=%d report=%d payload=%s\n",
					report.Input.Index, report.Index, payload)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&opts.InputIndex, "input-index", 0,
		"If set, lists only the reports of this input")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get a single report, polling until it is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := readerclient.NewReportQueryClient(opts.GraphQLUrl, nil)
			report, err := client.GetReport(ctx, opts.InputIndex, opts.ReportIndex)
			if err != nil {
				slog.Error("Get report", "error", err)
				return err
			}
			payload, err := renderPayload(report.Payload)
			if err != nil {
				return err
			}
			fmt.Printf("input=%d report=%d status=%s payload=%s\n",
				report.Input.Index, report.Index, report.Input.Status, payload)
			return nil
		},
	}
	getCmd.Flags().IntVar(&opts.InputIndex, "input-index", 0,
		"Index of the input the report belongs to")
	getCmd.Flags().IntVar(&opts.ReportIndex, "report-index", 0,
		"Index of the report within the input")
	markFlagRequired(getCmd, "input-index")

	reportsCmd.AddCommand(listCmd, getCmd)
}

// renderPayload formats a report payload for display. Payloads arrive as
// hex strings; --decode-hex prints the decoded bytes and --json-field
// extracts one field from a JSON payload.
func renderPayload(payload string) (string, error) {
	if !opts.DecodeHex && opts.JsonField == "" {
		return payload, nil
	}
	decoded, err := hexutil.Decode(payload)
	if err != nil {
		slog.Error("Decode payload", "payload", payload, "error", err)
		return "", err
	}
	if opts.JsonField != "" {
		return gjson.GetBytes(decoded, opts.JsonField).String(), nil
	}
	return string(decoded), nil
}

func init() {
	cmd.PersistentFlags().StringVar(&opts.GraphQLUrl, "graphql-url", DefaultGraphQLUrl,
		"URL of the reader GraphQL endpoint")
	cmd.PersistentFlags().BoolVarP(&debug, "enable-debug", "d", false,
		"If set, enable debug output")
	cmd.PersistentFlags().BoolVar(&color, "enable-color", true,
		"If set, enables logs color")
	cmd.PersistentFlags().BoolVar(&opts.DecodeHex, "decode-hex", false,
		"If set, prints payloads decoded from their hex form")
	cmd.PersistentFlags().StringVar(&opts.JsonField, "json-field", "",
		"If set, prints only this field of JSON payloads. Example: --json-field result.balance")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// setup log
		logOpts := new(tint.Options)
		if debug {
			logOpts.Level = slog.LevelDebug
		}
		logOpts.AddSource = debug
		logOpts.NoColor = !color || !isatty.IsTerminal(os.Stdout.Fd())
		logOpts.TimeFormat = "[15:04:05.000]"
		handler := tint.NewHandler(os.Stdout, logOpts)
		logger := slog.New(handler)
		slog.SetDefault(logger)

		LoadEnv()
		if !cmd.Flags().Changed("graphql-url") {
			if url := os.Getenv("GRAPHQL_URL"); url != "" {
				opts.GraphQLUrl = url
			}
		}
	}
}

// LoadEnv from a .env file in the working directory, when present. Values
// already set in the environment win.
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("env: no .env file loaded", "error", err)
		return
	}
	slog.Debug("env: loaded")
}

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	addReportsSubcommands(reportsCmd)
	cmd.AddCommand(reportsCmd, CompletionCmd)
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
