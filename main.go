// itodo scans a source tree for inline TODO-style tags and writes a
// markdown report grouping them by tag, file and line.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phobologic/itodo/internal/config"
	"github.com/phobologic/itodo/internal/discover"
	"github.com/phobologic/itodo/internal/lang"
	"github.com/phobologic/itodo/internal/logging"
	"github.com/phobologic/itodo/internal/organize"
	"github.com/phobologic/itodo/internal/render"
	"github.com/phobologic/itodo/internal/report"
	"github.com/phobologic/itodo/internal/scan"
)

var version = "dev"

// stdoutName as file_todo writes the report to stdout.
const stdoutName = "-"

var now = time.Now

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var emitCfg bool

	cmd := &cobra.Command{
		Use:   "itodo [key.subkey=value ...]",
		Short: "Collect inline TODO comments into a markdown report",
		Long: `Scan a source tree for inline tags such as TODO, FIXME or BUG and write
a markdown report grouping them by tag, file and line number.

Configuration is merged from the built-in defaults, ./itodo.yml, the file
named by config.file_in and finally key.subkey=value arguments:

  itodo searchDir=src read.tags.list=[TODO,BUG] write.item_format=terse

Lists are given in YAML flow form. Run 'itodo -e' to print the resolved
configuration.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if slices.ContainsFunc(args, isHelpWord) {
				return cmd.Help()
			}
			return generate(args, emitCfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVarP(&emitCfg, "emit-cfg", "e", false, "print the resolved configuration as YAML and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func isHelpWord(arg string) bool {
	return arg == "h" || arg == "help"
}

// generate runs one scan: resolve config, discover, scan, organize,
// render and write the report.
func generate(overrides []string, emitCfg bool, stdout, stderr io.Writer) error {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger := logging.New(stderr, level)
	defer func() { _ = logger.Sync() }()

	// verbose=true on the command line also covers config resolution.
	if l, err := config.ParseOverrides(overrides); err == nil && l.Verbose != nil {
		level.SetLevel(logging.Level(*l.Verbose))
	}

	exe, err := os.Executable()
	if err != nil {
		exe = ""
	}
	cfg, err := config.Resolve(config.Options{Args: overrides, Executable: exe, Logger: logger})
	if err != nil {
		return err
	}
	level.SetLevel(logging.Level(cfg.Verbose))

	if cfg.Config.FileOut != "" {
		if err := cfg.Save(cfg.Config.FileOut); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "> saved config to %s\n", cfg.Config.FileOut)
	}

	if emitCfg {
		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, _ = stdout.Write(data)
		return nil
	}

	// Everything that can be rejected up front is checked before scanning.
	attrs, err := cfg.Attrs()
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(cfg.Write.ItemFormat)
	if err != nil {
		return err
	}
	renderer, err := render.New(format, lang.NewRegistry(cfg.Write.Languages))
	if err != nil {
		return err
	}

	files, err := discover.Files(cfg.SearchDir, discover.Options{
		Extensions: cfg.Read.SourceFiles,
		Exclude:    cfg.Read.Exclude,
		Gitignore:  cfg.Read.Gitignore,
	})
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	logger.Debug("discovered files", zap.String("searchDir", cfg.SearchDir), zap.Int("count", len(files)))

	scanOpts := scan.Options{
		Tags:         cfg.Read.Tags.List,
		MaxSearchLen: cfg.Read.MaxSearchLen,
	}
	if cfg.Read.Context.Enabled {
		scanOpts.ContextLines = cfg.Read.Context.Lines
	}
	items, err := scan.Files(files, scanOpts, cfg.Read.SkipUnreadable, logger)
	if err != nil {
		return err
	}

	linkBase := "."
	if cfg.FileTodo != stdoutName {
		linkBase = filepath.Dir(cfg.FileTodo)
	}
	tree, err := organize.Organize(items, attrs, organize.Options{
		TagOrder:  cfg.Read.Tags.List,
		SearchDir: cfg.SearchDir,
		LinkBase:  linkBase,
		Render:    renderer.Item,
	})
	if err != nil {
		return err
	}
	body := render.Body(tree)

	meta := report.Summarize(files, items)
	header := report.NewHeader(cfg.FileTodo, meta, now())

	if err := writeReport(cfg.FileTodo, header, body, stdout, logger); err != nil {
		return err
	}

	if cfg.Write.HTML != "" {
		if err := report.WriteHTML(cfg.Write.HTML, header, body); err != nil {
			return err
		}
		logger.Debug("wrote html", zap.String("file", cfg.Write.HTML))
	}

	if cfg.FileTodo == stdoutName {
		logger.Info("report summary",
			zap.Int("items", meta.NumItems),
			zap.Int("files_with_todos", meta.FilesWithTodos),
			zap.Int("searched_files", meta.SearchedFiles))
		return nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	_, _ = fmt.Fprintf(stdout, "%s %s: %d items in %d files (%d searched)\n",
		green("wrote"), cfg.FileTodo, meta.NumItems, meta.FilesWithTodos, meta.SearchedFiles)
	return nil
}

// writeReport writes the document to path, or to stdout for "-". An
// existing report is read first so the change in item count is logged.
func writeReport(path string, header report.Header, body string, stdout io.Writer, logger *zap.Logger) error {
	if path == stdoutName {
		doc, err := report.Document(header, body)
		if err != nil {
			return err
		}
		_, err = stdout.Write(doc)
		return err
	}

	prev, err := report.ReadFrontMatter(path)
	switch {
	case err == nil:
		logger.Info("updating report",
			zap.String("file", path),
			zap.Int("previous_items", prev.Metadata.NumItems),
			zap.Int("items", header.Metadata.NumItems),
			zap.Int("change", header.Metadata.NumItems-prev.Metadata.NumItems))
	case errors.Is(err, fs.ErrNotExist):
		// first run
	default:
		logger.Debug("previous report unreadable", zap.String("file", path), zap.Error(err))
	}

	return report.WriteFile(path, header, body)
}
