package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tidesearch/rff/internal/config"
	"github.com/tidesearch/rff/internal/engine"
	"github.com/tidesearch/rff/internal/glob"
	"github.com/tidesearch/rff/internal/headless"
	"github.com/tidesearch/rff/internal/pattern"
	"github.com/tidesearch/rff/internal/search"
	"github.com/tidesearch/rff/internal/tui"
)

// exitUsage and exitError are the non-zero exit codes spec.md §6 names:
// 2 for a bad flag combination or unparsable pattern, 1 for any other
// runtime failure.
const (
	exitUsage = 2
	exitError = 1
)

var opts struct {
	searchText      string
	replaceText     string
	fixedStrings    bool
	wholeWord       bool
	caseInsensitive bool
	advancedRegex   bool
	multiline       bool
	interpretEscape bool
	hidden          bool
	includeGlobs    string
	excludeGlobs    string
	immediate       bool
	noTUI           bool
	configDir       string
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cmd := newRootCmd(&logger)
	if err := cmd.Execute(); err != nil {
		if ue, ok := err.(usageError); ok {
			fmt.Fprintln(os.Stderr, ue.Error())
			os.Exit(exitUsage)
		}
		logger.Error().Err(err).Msg("rff failed")
		os.Exit(exitError)
	}
}

// usageError marks an error that should exit with code 2 rather than 1
// (spec.md §6's "usage error" taxonomy).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func newRootCmd(logger *zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rff [dir]",
		Short:         "Interactive find-and-replace across a directory tree",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.searchText, "search-text", "s", "", "pre-populate search field")
	flags.StringVarP(&opts.replaceText, "replace-text", "r", "", "pre-populate replace field")
	flags.BoolVarP(&opts.fixedStrings, "fixed-strings", "f", false, "treat pattern literally")
	flags.BoolVarP(&opts.wholeWord, "match-whole-word", "w", false, "anchor pattern to word boundaries")
	flags.BoolVarP(&opts.caseInsensitive, "case-insensitive", "c", false, "case-insensitive match")
	flags.BoolVarP(&opts.advancedRegex, "advanced-regex", "a", false, "enable lookaround/backreferences")
	flags.BoolVarP(&opts.multiline, "multiline", "U", false, "enable multiline byte-mode search")
	flags.BoolVarP(&opts.interpretEscape, "interpret-escape-sequences", "e", false, `interpret \n \r \t \\ in replacement template`)
	flags.BoolVar(&opts.hidden, "hidden", false, "include hidden files")
	flags.StringVar(&opts.includeGlobs, "files-to-include", "", "comma-separated include globs")
	flags.StringVar(&opts.excludeGlobs, "files-to-exclude", "", "comma-separated exclude globs")
	flags.BoolVarP(&opts.immediate, "immediate-search", "X", false, "skip fields screen; start searching at launch")
	flags.BoolVarP(&opts.noTUI, "no-tui", "N", false, "headless mode")
	flags.StringVar(&opts.configDir, "config-dir", "", "override config directory")

	return cmd
}

func run(cmd *cobra.Command, args []string, logger *zerolog.Logger) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	stdinPiped := stdinIsPiped()
	if stdinPiped {
		if opts.hidden {
			return usageError{"Cannot use --hidden flag when processing stdin"}
		}
		if opts.includeGlobs != "" {
			return usageError{"Cannot use --files-to-include flag when processing stdin"}
		}
		if opts.excludeGlobs != "" {
			return usageError{"Cannot use --files-to-exclude flag when processing stdin"}
		}
	}

	cfgDir := opts.configDir
	if cfgDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolving config directory: %w", err)
		}
		cfgDir = dir
	}
	userCfg, err := config.Load(config.PathIn(cfgDir))
	if err != nil {
		return err
	}

	fields := fieldsFromFlags(userCfg)
	searchCfg, err := compileSearchConfig(fields)
	if err != nil {
		return usageError{err.Error()}
	}

	ctx := context.Background()

	if stdinPiped {
		// spec.md §6: stdin headless goes straight to stdout, since there
		// is no TUI reserving it; stdin under the TUI instead gets read in
		// full up front (stdin can't simultaneously be the data source and
		// the live keyboard stream) and its final bytes go to stderr,
		// since stdout is the TUI's own terminal for the session.
		if opts.noTUI {
			summary, err := headless.RunOnStdin(os.Stdin, os.Stdout, searchCfg)
			if err != nil {
				return err
			}
			_, _ = summary.WriteTo(os.Stderr)
			return nil
		}

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		return tui.RunOnStdin(data, fields, userCfg, opts.immediate, os.Stderr)
	}

	if opts.noTUI {
		summary, err := headless.RunOnDirectory(ctx, root, searchCfg, true)
		if err != nil {
			return err
		}
		_, _ = summary.WriteTo(os.Stderr)
		return nil
	}

	return tui.Run(ctx, root, fields, userCfg, opts.immediate)
}

func fieldsFromFlags(userCfg config.Config) engine.Fields {
	f := engine.Fields{
		SearchText:      opts.searchText,
		ReplaceText:     opts.replaceText,
		FixedStrings:    opts.fixedStrings,
		WholeWord:       opts.wholeWord,
		CaseInsensitive: opts.caseInsensitive,
		AdvancedRegex:   opts.advancedRegex,
		Multiline:       opts.multiline,
		InterpretEscape: opts.interpretEscape || userCfg.Search.InterpretEscapeSequences,
		IncludeHidden:   opts.hidden,
	}
	if opts.includeGlobs != "" {
		f.IncludeGlobs = strings.Split(opts.includeGlobs, ",")
	}
	if opts.excludeGlobs != "" {
		f.ExcludeGlobs = strings.Split(opts.excludeGlobs, ",")
	}
	if userCfg.Search.DisablePrepopulatedFields {
		f.SearchText = ""
		f.ReplaceText = ""
	}
	return f
}

func compileSearchConfig(f engine.Fields) (search.Config, error) {
	pat, err := pattern.Compile(f.SearchText, pattern.Options{
		FixedStrings:    f.FixedStrings,
		WholeWord:       f.WholeWord,
		CaseInsensitive: f.CaseInsensitive,
		AdvancedRegex:   f.AdvancedRegex,
		Multiline:       f.Multiline,
	})
	if err != nil {
		return search.Config{}, err
	}

	includeGlobs, err := glob.Compile(f.IncludeGlobs)
	if err != nil {
		return search.Config{}, err
	}
	excludeGlobs, err := glob.Compile(f.ExcludeGlobs)
	if err != nil {
		return search.Config{}, err
	}

	return search.Config{
		Pattern:          pat,
		Replacement:      pattern.NewTemplate(f.ReplaceText, f.InterpretEscape),
		IncludeGlobs:     includeGlobs,
		ExcludeGlobs:     excludeGlobs,
		IncludeHidden:    f.IncludeHidden,
		Multiline:        f.Multiline,
		InterpretEscapes: f.InterpretEscape,
	}, nil
}

func stdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) == 0
}
