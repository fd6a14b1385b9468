package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/recfind/internal/audit"
	"github.com/JonMunkholm/recfind/internal/core"
	"github.com/JonMunkholm/recfind/internal/report"
	"github.com/JonMunkholm/recfind/internal/shell"
	"github.com/JonMunkholm/recfind/internal/web"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Run one search and print a summary",
		ArgsUsage: "QUERY...",
		Description: heredoc.Doc(`
			Arguments are joined with spaces into a single query.

			Examples:
			  recfind search +7 (912) 345-67-89
			  recfind search --report ivanov ivan
			  recfind search --limit 10 user@example.com
		`),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum matches per dataset (default: SEARCH_MAX_RESULTS)",
			},
			&cli.BoolFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Save an HTML report of the matches",
			},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit(core.FormatUserError(core.ErrEmptyQuery), 2)
	}

	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, rt.cfg.Search.Timeout)
	defer cancel()

	outcome, err := rt.service.SearchWithCap(ctx, query, c.Int("limit"))
	if err != nil {
		return cli.Exit(core.FormatUserError(err), 1)
	}

	out := c.App.Writer
	fmt.Fprint(out, report.FormatText(outcome, rt.textOptions()))

	if !c.Bool("report") {
		return nil
	}
	if outcome.Empty() {
		fmt.Fprintln(out, "No results to put in an HTML report.")
		return nil
	}

	path, err := report.NewSaver(rt.cfg.Report.OutputDir).Save(ctx, outcome)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Fprintf(out, "HTML report saved: %s\n", path)
	return nil
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Search interactively",
		Description: heredoc.Doc(`
			Reads one query per line and prints a summary of each search.
			After every search the shell offers to save an HTML report.
			An empty line, end of input or Ctrl+C ends the session.
		`),
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := shell.New(
		rt.service,
		report.NewSaver(rt.cfg.Report.OutputDir),
		rt.textOptions(),
		c.App.Reader,
		c.App.Writer,
	)
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search API and HTML reports over HTTP",
		Description: heredoc.Doc(`
			Listens on SERVER_HOST:SERVER_PORT. SIGINT or SIGTERM stops accepting
			requests and waits up to SERVER_SHUTDOWN_TIMEOUT for running searches.
		`),
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []web.Option{web.WithLogger(rt.logger)}
	if rt.auditSink != nil {
		opts = append(opts, web.WithAuditLog(rt.auditSink))
	}
	server := web.NewServer(rt.service, rt.catalog, rt.cfg, opts...)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if rt.auditSink != nil && rt.cfg.Audit.RetentionDays > 0 {
		go audit.StartRetention(jobCtx, rt.auditSink, audit.RetentionConfig{
			RetentionDays: rt.cfg.Audit.RetentionDays,
			CheckInterval: rt.cfg.Audit.RetentionInterval,
			Logger:        rt.logger,
		})
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()

		rt.logger.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			rt.logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-shutdownDone
	rt.logger.Info("server stopped")
	return nil
}

func datasetsCommand() *cli.Command {
	return &cli.Command{
		Name:   "datasets",
		Usage:  "List configured datasets and whether their files are present",
		Action: datasetsAction,
	}
}

func datasetsAction(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tFILE")
	for _, e := range rt.catalog.Entries() {
		status := "missing"
		if e.Available {
			status = "available"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, status, e.File)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "\n%d of %d datasets available\n", rt.catalog.AvailableCount(), rt.catalog.Len())
	return nil
}
