/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scribe-team/scribe/client"
	"github.com/scribe-team/scribe/pkg/document"
)

var (
	sinceVersion int64
	historySize  int
	dumpHistory  bool
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [document id]",
		Short: "Show the committed operations of a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("document id is required")
			}

			cli, err := dial(client.WithKey("scribe-cli"))
			if err != nil {
				return err
			}
			defer func() {
				_ = cli.Close()
			}()

			ctx, cancel := requestContext()
			defer cancel()
			ops, err := cli.Operations(ctx, args[0], sinceVersion, historySize)
			if err != nil {
				return err
			}

			if dumpHistory {
				cmd.Println(litter.Sdump(ops))
				return nil
			}
			return printOperations(cmd, viper.GetString("output"), ops)
		},
	}
}

func printOperations(cmd *cobra.Command, output string, ops []document.CommittedOperation) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"VERSION",
			"CLIENT",
			"SEQ",
			"OPERATION",
			"APPLIED AT",
		})
		for _, op := range ops {
			tw.AppendRow(table.Row{
				op.Version,
				op.OriginClientID,
				op.ClientSeq,
				op.Operation.String(),
				op.AppliedAt.Format(time.RFC3339),
			})
		}
		cmd.Printf("%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(ops, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(ops)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func init() {
	cmd := newHistoryCmd()
	cmd.Flags().Int64Var(
		&sinceVersion,
		"since",
		0,
		"The version after which operations are listed",
	)
	cmd.Flags().IntVar(
		&historySize,
		"size",
		0,
		"The number of operations to output",
	)
	cmd.Flags().BoolVar(
		&dumpHistory,
		"dump",
		false,
		"Dump the operations as Go values",
	)
	rootCmd.AddCommand(cmd)
}
