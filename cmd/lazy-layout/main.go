package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/alchemmist/lazy-layout/internal/app"
	"github.com/alchemmist/lazy-layout/internal/config"
	"github.com/alchemmist/lazy-layout/internal/logging"
	"github.com/alchemmist/lazy-layout/internal/snapshot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stdout)
		return 2
	}

	var err error
	switch args[0] {
	case "save":
		err = runSave(args[1:], stdout)
	case "restore":
		err = runRestore(args[1:], stdout)
	case "picker":
		err = runPicker(args[1:], stdout)
	case "bootstrap":
		err = runBootstrap(args[1:])
	case "list":
		err = runList(args[1:], stdout)
	case "delete":
		err = runDelete(args[1:])
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "lazy-layout: unknown command: %s\n", args[0])
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "lazy-layout: %s\n", formatError(err))
		return 1
	}
	return 0
}

// globals are the flags every subcommand accepts. Empty values leave the
// loaded configuration alone.
type globals struct {
	configPath string
	dataDir    string
	tmuxBin    string
	logLevel   string
}

func newFlagSet(name string, g *globals) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&g.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lazy-layout/config.yaml)")
	fs.StringVar(&g.dataDir, "data-dir", "", "record directory")
	fs.StringVar(&g.tmuxBin, "tmux-bin", "", "tmux binary")
	fs.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	return fs
}

func (g globals) config() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
	}
	if g.tmuxBin != "" {
		cfg.TmuxBin = g.tmuxBin
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	return cfg, cfg.Validate()
}

// open builds the app. The returned func flushes the logger.
func (g globals) open() (*app.App, func(), error) {
	cfg, err := g.config()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		return nil, nil, err
	}
	return app.New(cfg, log), func() { _ = log.Sync() }, nil
}

func recordKind(workspace bool) snapshot.RecordKind {
	if workspace {
		return snapshot.KindWorkspace
	}
	return snapshot.KindSession
}

func runSave(args []string, out io.Writer) error {
	var g globals
	fs := newFlagSet("save", &g)
	name := fs.String("name", "", "record name (default session:window, or the session for --workspace)")
	workspace := fs.Bool("workspace", false, "save every window of the session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()

	var saved string
	if *workspace {
		saved, err = a.SaveWorkspace(*name)
	} else {
		saved, err = a.SaveSurface(*name)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s %q\n", recordKind(*workspace), saved)
	return nil
}

func runRestore(args []string, out io.Writer) error {
	var g globals
	fs := newFlagSet("restore", &g)
	name := fs.String("name", "", "record to restore")
	workspace := fs.Bool("workspace", false, "restore a workspace record")
	switchClient := fs.Bool("switch", true, "switch the client to the restored window")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("restore requires --name")
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()

	rec := snapshot.Record{Name: strings.TrimSpace(*name), Kind: recordKind(*workspace)}
	restored, missed, err := a.RestoreRecord(rec, *switchClient)
	printSummary(out, rec, restored, missed)
	return err
}

func runPicker(args []string, out io.Writer) error {
	var g globals
	fs := newFlagSet("picker", &g)
	useFZF := fs.Bool("fzf-engine", false, "use fzf instead of the built-in picker")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()

	var rec snapshot.Record
	if *useFZF {
		rec, err = a.SelectWithFZF()
	} else {
		rec, err = a.SelectWithTUI()
	}
	if err != nil {
		return err
	}
	restored, missed, err := a.RestoreRecord(rec, true)
	printSummary(out, rec, restored, missed)
	return err
}

func runBootstrap(args []string) error {
	var g globals
	fs := newFlagSet("bootstrap", &g)
	session := fs.String("session", "last", "record name or 'last'")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()
	return a.Bootstrap(*session)
}

func runList(args []string, out io.Writer) error {
	var g globals
	fs := newFlagSet("list", &g)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()

	recs, err := a.ListRecords()
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s\t%s\t%s\t%ds/%dp\n", r.Name, r.Kind, r.CapturedAt.Local().Format(time.RFC3339), r.Surfaces, r.Panes)
	}
	return nil
}

func runDelete(args []string) error {
	var g globals
	fs := newFlagSet("delete", &g)
	name := fs.String("name", "", "record to delete")
	workspace := fs.Bool("workspace", false, "delete a workspace record")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return errors.New("delete requires --name")
	}

	a, done, err := g.open()
	if err != nil {
		return err
	}
	defer done()

	var kind snapshot.RecordKind
	if *workspace {
		kind = snapshot.KindWorkspace
	}
	return a.Delete(*name, kind)
}

func printSummary(out io.Writer, rec snapshot.Record, restored, missed int) {
	if restored == 0 && missed == 0 {
		return
	}
	fmt.Fprintf(out, "restored %s %q: %d panes", rec.Kind, rec.Name, restored)
	if missed > 0 {
		fmt.Fprintf(out, ", %d unavailable", missed)
	}
	fmt.Fprintln(out)
}

func usage(out io.Writer) {
	fmt.Fprint(out, `lazy-layout - save and rebuild tmux pane layouts with their content

Usage:
  lazy-layout <command> [flags]

Commands:
  save       Save the current window (or all windows with --workspace)
  restore    Restore one record by --name
  picker     Pick a record and restore it (default: TUI, --fzf-engine for fzf)
  bootstrap  Restore one record at tmux startup (default: last)
  list       List saved records
  delete     Delete one record by --name

Global flags:
  --config     Config file
  --data-dir   Record directory
  --tmux-bin   tmux binary
  --log-level  debug, info, warn or error
`)
}

func formatError(err error) string {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("not found: %v", err)
	}
	return err.Error()
}
