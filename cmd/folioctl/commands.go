// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/folio/internal/client"
	"github.com/taibuivan/folio/internal/likes"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	gateway string
	token   string
	timeout time.Duration
}

func (options *globalOptions) client() *client.Client {
	return client.New(client.Options{
		GatewayURL: options.gateway,
		Token:      options.token,
		Timeout:    options.timeout,
	})
}

func newRootCmd() *cobra.Command {
	options := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "folioctl",
		Short: "Inspect and toggle portfolio likes through the Folio gateway",
		Long: `folioctl talks to the Folio gateway the way a signed-in page does,
using the bearer-header credential instead of the session cookie.

The token defaults to the FOLIO_TOKEN environment variable.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&options.gateway, "gateway", "http://localhost:8080", "Gateway base URL")
	rootCmd.PersistentFlags().StringVar(&options.token, "token", os.Getenv("FOLIO_TOKEN"), "Bearer token (or set FOLIO_TOKEN env)")
	rootCmd.PersistentFlags().DurationVar(&options.timeout, "timeout", 15*time.Second, "Per-call timeout")

	rootCmd.AddCommand(newStatusCmd(options))
	rootCmd.AddCommand(newToggleCmd(options))

	return rootCmd
}

func newStatusCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <portfolio-id>",
		Short: "Show whether you like a portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := options.client().LikeStatus(cmd.Context(), args[0])
			if err != nil {
				return errors.New(likes.Message(err))
			}

			count := "unknown"
			if status.LikeCount != nil {
				count = fmt.Sprint(*status.LikeCount)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s liked=%t likes=%s\n", args[0], status.IsLiked, count)
			return nil
		},
	}
}

func newToggleCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <portfolio-id>",
		Short: "Like a portfolio, or unlike it if you already do",
		Long: `Reads the current like state, flips it optimistically, and prints the
state the gateway settled on. On failure the previous state is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd.Context(), cmd.OutOrStdout(), options.client(), args[0])
		},
	}
}

func runToggle(ctx context.Context, out io.Writer, gateway *client.Client, id string) error {
	status, err := gateway.LikeStatus(ctx, id)
	if err != nil {
		return errors.New(likes.Message(err))
	}

	// Without a server count the store starts at zero; print it as unknown
	// until a like or unlike answer carries the real value.
	counted := &countedClient{LikeClient: gateway, known: status.LikeCount != nil}

	store := likes.NewStore()
	if status.LikeCount != nil {
		store.Initialize(id, *status.LikeCount, status.IsLiked)
	} else {
		store.Initialize(id, 0, status.IsLiked)
	}

	unsubscribe := store.Subscribe(func(id string, state likes.State) {
		count := "unknown"
		if counted.countKnown() {
			count = fmt.Sprint(state.LikeCount)
		}
		fmt.Fprintf(out, "%s liked=%t likes=%s\n", id, state.IsLiked, count)
	})
	defer unsubscribe()

	if _, err := likes.NewToggler(store, counted).Toggle(ctx, id); err != nil {
		return errors.New(likes.Message(err))
	}
	return nil
}

// countedClient records whether the gateway has reported a like count yet.
type countedClient struct {
	likes.LikeClient

	mu    sync.Mutex
	known bool
}

func (c *countedClient) Like(ctx context.Context, id string) (likes.Outcome, error) {
	return c.observe(c.LikeClient.Like(ctx, id))
}

func (c *countedClient) Unlike(ctx context.Context, id string) (likes.Outcome, error) {
	return c.observe(c.LikeClient.Unlike(ctx, id))
}

func (c *countedClient) observe(outcome likes.Outcome, err error) (likes.Outcome, error) {
	if err == nil && outcome.LikeCount != nil {
		c.mu.Lock()
		c.known = true
		c.mu.Unlock()
	}
	return outcome, err
}

func (c *countedClient) countKnown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.known
}
