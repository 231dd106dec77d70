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
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scribe-team/scribe/client"
	"github.com/scribe-team/scribe/pkg/ot"
)

// ErrNotConverged is returned when the simulated replicas still differ after
// the settle timeout.
var ErrNotConverged = errors.New("replicas did not converge")

var (
	simulateClients int
	simulateEdits   int
	simulateSettle  time.Duration
)

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate [document id]",
		Short: "Run concurrent editing clients against a document and check they converge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("document id is required")
			}
			if simulateClients < 1 {
				return fmt.Errorf("invalid number of clients: %d", simulateClients)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return simulate(ctx, cmd, args[0])
		},
	}
}

func simulate(ctx context.Context, cmd *cobra.Command, docID string) error {
	var attachments []*client.Attachment
	for i := range simulateClients {
		cli, err := dial(
			client.WithKey(fmt.Sprintf("simulator-%d", i)),
			client.WithLogger(zap.NewNop()),
		)
		if err != nil {
			return err
		}
		defer func() {
			_ = cli.Close()
		}()

		a, err := cli.Attach(ctx, docID)
		if err != nil {
			return err
		}
		attachments = append(attachments, a)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range attachments {
		g.Go(func() error {
			rnd := rand.New(rand.NewPCG(uint64(i), uint64(start.UnixNano())))
			for range simulateEdits {
				if err := a.Edit(gctx, randomEdit(rnd, a.Content(), i)); err != nil &&
					!errors.Is(err, ot.ErrOutOfRange) {
					return err
				}
				time.Sleep(time.Duration(rnd.IntN(5)) * time.Millisecond)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	converged := waitConverged(attachments, simulateSettle)

	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{"CLIENT", "VERSION", "SYNCED", "LENGTH"})
	for i, a := range attachments {
		tw.AppendRow(table.Row{
			fmt.Sprintf("simulator-%d", i),
			a.Version(),
			a.Synced(),
			len([]rune(a.Content())),
		})
	}
	cmd.Printf("%s\n", tw.Render())
	cmd.Printf("%d edits by %d clients in %s\n", simulateEdits*simulateClients, simulateClients, time.Since(start))

	if !converged {
		return ErrNotConverged
	}
	cmd.Printf("converged at version %d\n", attachments[0].Version())
	return nil
}

// randomEdit returns an insert or a delete at a random rune position of the
// given content. Deletes may run past the end, the server clamps them.
func randomEdit(rnd *rand.Rand, content string, client int) ot.Operation {
	length := len([]rune(content))
	if length > 0 && rnd.IntN(3) == 0 {
		return ot.NewDelete(rnd.IntN(length), 1+rnd.IntN(3))
	}
	return ot.NewInsert(rnd.IntN(length+1), string(rune('a'+client%26)))
}

func waitConverged(attachments []*client.Attachment, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if converged(attachments) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func converged(attachments []*client.Attachment) bool {
	first := attachments[0]
	for _, a := range attachments {
		if !a.Synced() || a.Version() != first.Version() || a.Content() != first.Content() {
			return false
		}
	}
	return true
}

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(
		&simulateClients,
		"clients",
		4,
		"The number of concurrent clients",
	)
	cmd.Flags().IntVar(
		&simulateEdits,
		"edits",
		50,
		"The number of edits of each client",
	)
	cmd.Flags().DurationVar(
		&simulateSettle,
		"settle-timeout",
		10*time.Second,
		"How long to wait for the replicas to converge",
	)
	rootCmd.AddCommand(cmd)
}
