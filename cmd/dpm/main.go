// Package main is the dpm command line tool.
//
// dpm checks, describes and rewrites DataPlusMeta files, exports their
// schema as JSON Schema, and can watch files to re-check them on every
// change. Defaults are read from a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const usage = `usage: dpm [-log-level level] <command> [flags] <file>...

Commands:
  check       report files whose schema does not describe their data
  describe    summarize files
  rewrite     refresh the schema and write a file back
  jsonschema  print the JSON Schema of one data row
  watch       re-check files every time they change
  version     print version and exit

Run "dpm <command> -h" for the flags of a command.
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	err := mainImpl(ctx, os.Args[1:], os.Stdout, colorable.NewColorable(os.Stderr), !isatty.IsTerminal(os.Stderr.Fd()))
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "dpm: %v\n", err)
		}
		os.Exit(1)
	}
}

func mainImpl(ctx context.Context, args []string, stdout, stderr io.Writer, noColor bool) error {
	fs := flag.NewFlagSet("dpm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Load .env for defaults not given on the command line.
	env, err := loadDotEnv(".")
	if err != nil {
		return err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["log-level"] {
		if v := env["DPM_LOG_LEVEL"]; v != "" {
			*logLevel = v
		}
	}

	ll := &slog.LevelVar{}
	switch *logLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", *logLevel)
	}
	slog.SetDefault(slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch t := a.Value.Any().(type) {
			case string:
				if t == "" {
					return slog.Attr{}
				}
			case time.Duration:
				if t == 0 {
					return slog.Attr{}
				}
			case nil:
				return slog.Attr{}
			}
			return a
		},
	})))

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	c := &cli{stdout: stdout, stderr: stderr, env: env}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "check":
		return c.check(rest)
	case "describe":
		return c.describe(rest)
	case "rewrite":
		return c.rewrite(rest)
	case "jsonschema":
		return c.jsonSchema(rest)
	case "watch":
		return c.watch(ctx, rest)
	case "version":
		printVersion(stdout)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// buildInfo is the part of debug.BuildInfo printed by "dpm version".
type buildInfo struct {
	version   string
	goVersion string
	revision  string
	modified  bool
}

func printVersion(w io.Writer) {
	b := readBuildInfo()
	_, _ = fmt.Fprintf(w, "dpm %s\n  Go version: %s\n  Revision:   %s\n", b.version, b.goVersion, b.revision)
	if b.modified {
		_, _ = fmt.Fprintln(w, "  Modified:   true")
	}
}

func readBuildInfo() buildInfo {
	b := buildInfo{version: "unknown", goVersion: "unknown", revision: "unknown"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	b.version = info.Main.Version
	if b.version == "" || b.version == "(devel)" {
		b.version = "dev"
	}
	b.goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.revision = setting.Value
		case "vcs.modified":
			b.modified = setting.Value == "true"
		}
	}
	return b
}

// loadDotEnv reads KEY=value lines from dir/.env. A missing file is empty.
// Double quoted values are unquoted with Go syntax, so "a\nb" spans two
// lines.
func loadDotEnv(dir string) (map[string]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ".env")) //nolint:gosec // G304: fixed file name in a caller-chosen directory
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	env := make(map[string]string)
	for line := range strings.Lines(string(raw)) {
		line = strings.TrimSpace(line)
		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.HasPrefix(line, "#") {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if strings.HasPrefix(val, `"`) {
			if val, err = strconv.Unquote(val); err != nil {
				return nil, fmt.Errorf("%s in .env: %w", key, err)
			}
		}
		env[key] = val
	}
	return env, nil
}
