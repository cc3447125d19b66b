// Command ipoctl lists and edits IPO records through a running ipo-tracker server.
//
//	ipoctl [-server URL] list [-tab live|history] [-page N] [-limit N] [-search TERM]
//	ipoctl [-server URL] set -id ID [-recommendation VALUE] [-apply true|false]
//	ipoctl [-server URL] history -id ID [-limit N]
//	ipoctl [-server URL] health
//	ipoctl [-server URL] browse
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fenilmodi00/ipo-tracker/dashboard"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("IPO_SERVER_URL", "http://localhost:8080"), "server base URL")
	prefix := flag.String("api-prefix", envOr("API_PREFIX", "/api"), "API route prefix")
	timeout := flag.Duration("timeout", 10*time.Second, "request timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	logrus.SetLevel(logrus.WarnLevel)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	client := dashboard.NewClient(*server, *prefix, *timeout)
	defer client.Close()

	ctx := context.Background()
	args := flag.Args()[1:]

	var err error
	switch flag.Arg(0) {
	case "list":
		err = runList(ctx, client, args)
	case "set":
		err = runSet(ctx, client, args)
	case "history":
		err = runHistory(ctx, client, args)
	case "health":
		err = runHealth(ctx, client)
	case "browse":
		err = runBrowse(ctx, client, os.Stdin, os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ipoctl [flags] <list|set|history|health|browse> [command flags]`)
	flag.PrintDefaults()
}

func runList(ctx context.Context, client *dashboard.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	tab := fs.String("tab", string(models.TabLive), "live or history")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", dashboard.DefaultLimit, "page size")
	search := fs.String("search", "", "search term")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, ok := models.ParseTab(*tab)
	if !ok {
		return fmt.Errorf("unknown tab %q", *tab)
	}
	state := dashboard.State{Tab: parsed, Page: *page, Search: strings.TrimSpace(*search)}

	result, err := client.ListIPOs(ctx, state.Params(*limit))
	if err != nil {
		return err
	}
	printView(os.Stdout, dashboard.BuildView(state, result, false, nil))
	return nil
}

func runSet(ctx context.Context, client *dashboard.Client, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	id := fs.String("id", "", "record id")
	recommendation := fs.String("recommendation", "", "Apply, Review, Avoid or Applied")
	apply := fs.String("apply", "", "apply for listing gain: true or false")
	if err := fs.Parse(args); err != nil {
		return err
	}

	update := models.IPOUpdate{Source: services.SourceCLI}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "recommendation" {
			rec := models.Recommendation(*recommendation)
			update.Recommendation = &rec
		}
	})
	if *apply != "" {
		value, err := strconv.ParseBool(*apply)
		if err != nil {
			return fmt.Errorf("invalid -apply value %q", *apply)
		}
		update.ApplyForListingGain = &value
	}

	result, err := client.UpdateIPO(ctx, *id, update)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s (modified: %d)\n", *id, result.ModifiedCount)
	return nil
}

func runHistory(ctx context.Context, client *dashboard.Client, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	id := fs.String("id", "", "record id")
	limit := fs.Int("limit", 20, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logs, err := client.UpdateLogs(ctx, *id, *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFIELD\tOLD\tNEW\tSOURCE")
	for _, entry := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.Timestamp.Format(time.RFC3339), entry.FieldName, entry.OldValue, entry.NewValue, entry.Source)
	}
	return w.Flush()
}

func runHealth(ctx context.Context, client *dashboard.Client) error {
	body, err := client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("status: %v  database: %v\n", body["status"], body["database"])
	return nil
}

// runBrowse drives the dashboard controller from line commands on in
func runBrowse(ctx context.Context, client *dashboard.Client, in io.Reader, out io.Writer) error {
	ctrl := dashboard.NewController(client, dashboard.DefaultLimit, 300*time.Millisecond)
	defer ctrl.Close()

	ctrl.OnChange(func(vm dashboard.ViewModel) {
		if vm.RenderState != dashboard.RenderLoading {
			printView(out, vm)
		}
	})
	ctrl.Refresh(ctx)

	fmt.Fprintln(out, "commands: live | history | next | prev | page N | search TERM | rec N VALUE | apply N true|false | quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "q":
			return nil
		case "live":
			ctrl.SetTab(ctx, models.TabLive)
		case "history":
			ctrl.SetTab(ctx, models.TabHistory)
		case "next", "n":
			ctrl.NextPage(ctx)
		case "prev", "p":
			ctrl.PrevPage(ctx)
		case "page":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					ctrl.SetPage(ctx, n)
					continue
				}
			}
			fmt.Fprintln(out, "usage: page N")
		case "search", "s":
			ctrl.SetSearch(strings.Join(fields[1:], " "))
		case "rec", "apply":
			if err := browseUpdate(ctx, ctrl, fields); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
		default:
			fmt.Fprintln(out, "unknown command")
		}
	}
}

// browseUpdate edits the row at a 1-based position of the current page
func browseUpdate(ctx context.Context, ctrl *dashboard.Controller, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("usage: %s N VALUE", fields[0])
	}
	rows := ctrl.View().Rows
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(rows) {
		return fmt.Errorf("no row %s on this page", fields[1])
	}

	var update models.IPOUpdate
	if fields[0] == "rec" {
		rec := models.Recommendation(fields[2])
		update.Recommendation = &rec
	} else {
		value, err := strconv.ParseBool(fields[2])
		if err != nil {
			return fmt.Errorf("invalid value %q", fields[2])
		}
		update.ApplyForListingGain = &value
	}

	_, err = ctrl.Update(ctx, rows[n-1].ID, update)
	return err
}

func printView(out io.Writer, vm dashboard.ViewModel) {
	fmt.Fprintf(out, "[%s] search=%q\n", vm.State.Tab, vm.State.Search)
	if vm.Notice != "" {
		fmt.Fprintln(out, vm.Notice)
	}
	if vm.RenderState != dashboard.RenderTable {
		fmt.Fprintln(out, vm.Message)
	} else {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tIPO NAME\tEND DATE\tGMP\tSUBSCRIPTION\tRECOMMENDATION\tLISTING GAIN")
		for i, row := range vm.Rows {
			subscription := make([]string, 0, len(row.Subscription))
			for _, line := range row.Subscription {
				subscription = append(subscription, line.Label+" "+line.Value)
			}
			recommendation := string(row.Recommendation)
			if recommendation == "" {
				recommendation = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
				i+1, row.Name, row.EndDate, row.GMP, strings.Join(subscription, " "), recommendation, row.ApplyForListingGain)
		}
		w.Flush()
	}
	fmt.Fprintln(out, vm.Pagination.Label)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
