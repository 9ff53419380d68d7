// Command bookbot uploads books and asks questions about them from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"library-backend/internal/bootstrap"
	"library-backend/internal/cli"
	"library-backend/internal/session"
	"library-backend/internal/shared/config"
	"library-backend/internal/shared/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		profilePath = flag.String("profile", cli.DefaultProfilePath(), "path to the YAML profile")
		owner       = flag.String("owner", "", "owner id (overrides profile and BOOKBOT_OWNER)")
		noProgress  = flag.Bool("no-progress", false, "disable the upload progress bar")
		verbose     = flag.Bool("v", false, "print structured logs to stderr")
	)
	flag.Parse()

	if *verbose {
		telemetry.SetOutput(os.Stderr)
	} else {
		telemetry.SetOutput(io.Discard)
		log.SetOutput(io.Discard)
	}

	profile, err := cli.LoadProfile(*profilePath)
	if err != nil {
		color.Red("%v", err)
		return 1
	}
	cfg := profile.Apply(config.Load())

	sess, err := session.New(firstNonEmpty(*owner, profile.Owner, os.Getenv("BOOKBOT_OWNER"), os.Getenv("USER")))
	if err != nil {
		color.Red("no owner: pass -owner, set owner in %s or BOOKBOT_OWNER", cli.ProfileFile)
		return 1
	}
	sess.Email = profile.Email

	app, err := bootstrap.Build(cfg)
	if err != nil {
		color.Red("startup: %v", err)
		return 1
	}
	defer app.Close()
	if app.DB == nil {
		color.Yellow("No database configured; the catalog lasts for this session only.")
	}

	ws, err := app.Registry.For(sess)
	if err != nil {
		color.Red("startup: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli.CLI{WS: ws, Out: os.Stdout, NoProgress: *noProgress}
	args := flag.Args()
	if len(args) == 0 || args[0] == "shell" {
		fmt.Printf("bookbot for %s (index=%s, store=%s). Type 'help' or 'exit'.\n",
			sess.OwnerID, cfg.IndexServiceURL, cfg.ObjectStoreType)
		if err := c.Shell(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			c.Fail(err)
			return 1
		}
		return 0
	}
	if err := c.Run(ctx, args); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		c.Fail(err)
		return 1
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
