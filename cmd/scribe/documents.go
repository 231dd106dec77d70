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
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/client"
)

var (
	previousID string
	pageSize   int
)

func newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List the documents of the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := dial(client.WithKey("scribe-cli"))
			if err != nil {
				return err
			}
			defer func() {
				_ = cli.Close()
			}()

			ctx, cancel := requestContext()
			defer cancel()
			documents, err := cli.Documents(ctx, previousID, pageSize)
			if err != nil {
				return err
			}

			return printDocuments(cmd, viper.GetString("output"), documents)
		},
	}
}

func printDocuments(cmd *cobra.Command, output string, documents []types.DocumentSummary) error {
	switch output {
	case "":
		now := time.Now()
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"ID",
			"VERSION",
			"CLIENTS",
			"CREATED AT",
			"UPDATED AT",
		})
		for _, document := range documents {
			tw.AppendRow(table.Row{
				document.ID,
				document.Version,
				document.AttachedClients,
				now.Sub(document.CreatedAt).Round(time.Second),
				now.Sub(document.UpdatedAt).Round(time.Second),
			})
		}
		cmd.Printf("%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(documents, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(documents)
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
	cmd := newDocumentsCmd()
	cmd.Flags().StringVar(
		&previousID,
		"previous-id",
		"",
		"The previous document ID to start from",
	)
	cmd.Flags().IntVar(
		&pageSize,
		"size",
		10,
		"The number of documents to output per page",
	)
	rootCmd.AddCommand(cmd)
}
