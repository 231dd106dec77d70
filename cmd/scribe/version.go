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
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/scribe-team/scribe/internal/version"
)

// VersionInfo is the version of the CLI.
type VersionInfo struct {
	ScribeVersion string `json:"scribeVersion" yaml:"scribeVersion"`
	GitCommit     string `json:"gitCommit" yaml:"gitCommit"`
	GoVersion     string `json:"goVersion" yaml:"goVersion"`
	BuildDate     string `json:"buildDate" yaml:"buildDate"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Scribe",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				ScribeVersion: version.Version,
				GitCommit:     version.GitCommit,
				GoVersion:     runtime.Version(),
				BuildDate:     version.BuildDate,
			}

			switch output := viper.GetString("output"); output {
			case "":
				cmd.Printf("Scribe: %s\n", info.ScribeVersion)
				cmd.Printf("Commit: %s\n", info.GitCommit)
				cmd.Printf("Go: %s\n", info.GoVersion)
				cmd.Printf("Build Date: %s\n", info.BuildDate)
			case "json":
				marshalled, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal JSON: %w", err)
				}
				cmd.Println(string(marshalled))
			case "yaml":
				marshalled, err := yaml.Marshal(info)
				if err != nil {
					return fmt.Errorf("marshal YAML: %w", err)
				}
				cmd.Println(string(marshalled))
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
