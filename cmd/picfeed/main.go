// Command picfeed is a terminal client for the picfeed API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/oggyb/picfeed/internal/apiclient"
	"github.com/oggyb/picfeed/internal/logger"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "picfeed",
		Usage: "Browse and interact with a picfeed server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", Sources: cli.EnvVars("PICFEED_SERVER"), Usage: "API base URL"},
			&cli.StringFlag{Name: "token", Sources: cli.EnvVars("PICFEED_TOKEN"), Usage: "bearer token; empty browses anonymously"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
			&cli.BoolFlag{Name: "verbose", Usage: "debug logging"},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level := "warn"
			if c.Bool("verbose") {
				level = "debug"
			}
			logger.Init(&logger.Config{Level: level, Format: logger.FormatText, Component: "picfeed_cli", Output: os.Stderr})
			return ctx, nil
		},
		Commands: []*cli.Command{
			feedCommand(),
			showCommand(),
			postCommand(),
			deletePostCommand(),
			likeCommand("like", true),
			likeCommand("unlike", false),
			followCommand("follow", true),
			followCommand("unfollow", false),
			commentsCommand(),
			commentCommand(),
			uncommentCommand(),
			profileCommand(),
			searchCommand(),
			syncCommand(),
		},
	}

	if err := root.Run(ctx, args); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func clientFrom(c *cli.Command) *apiclient.Client {
	return apiclient.New(c.String("server"), c.String("token"))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireArgs(c *cli.Command, n int, usage string) error {
	if c.NArg() < n {
		return fmt.Errorf("usage: picfeed %s %s", c.Name, usage)
	}
	return nil
}
