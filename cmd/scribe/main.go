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

// Package main is the entry point of the Scribe CLI.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scribe-team/scribe/client"
)

const requestTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Collaborative plain-text editing server based on operational transformation",
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

func main() {
	os.Exit(Run())
}

// dial connects a client to the server given by --rpc-addr or
// SCRIBE_RPC_ADDR.
func dial(opts ...client.Option) (*client.Client, error) {
	return client.New(viper.GetString("rpcAddr"), opts...)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func init() {
	viper.SetEnvPrefix("scribe")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("rpc-addr", "localhost:8080", "Address of the rpc server")
	rootCmd.PersistentFlags().StringP("output", "o", "", "One of 'yaml' or 'json'.")
	_ = viper.BindPFlag("rpcAddr", rootCmd.PersistentFlags().Lookup("rpc-addr"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindEnv("rpcAddr", "SCRIBE_RPC_ADDR")
}
