package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/query"
	"github.com/verte-zerg/ngram-keylogger/internal/stats"
	"github.com/verte-zerg/ngram-keylogger/internal/store"
	"github.com/verte-zerg/ngram-keylogger/internal/topui"
)

const defaultLimit = 30

var (
	queryContexts    string
	queryByContext   bool
	queryLimit       int
	queryFormat      string
	queryFraction    bool
	queryCumulative  bool
	queryRenormalize bool
	queryColor       bool

	topContexts string
	topLimit    int
	topRefresh  time.Duration
)

type queryFunc func(ctx context.Context, engine *query.Engine, args []string, opts query.Options) ([]model.Row, error)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query recorded statistics",
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&queryContexts, "contexts", "*", "comma-separated context patterns")
	flags.BoolVar(&queryByContext, "by-context", false, "group rows by context")
	flags.IntVar(&queryLimit, "limit", defaultLimit, "maximum rows (0 for all)")
	flags.StringVar(&queryFormat, "format", string(stats.FormatTable), "output format: table, bar, json, yaml")
	flags.BoolVar(&queryFraction, "fraction", false, "show values as a fraction of all matching keypresses")
	flags.BoolVar(&queryCumulative, "cumulative", false, "show running totals")
	flags.BoolVar(&queryRenormalize, "renormalize", false, "show values as a fraction of the shown rows")
	flags.BoolVar(&queryColor, "color", false, "style output even when not writing to a terminal")

	cmd.AddCommand(newQuerySubCmd("keypresses-count", "Total keypresses", cobra.NoArgs,
		func(ctx context.Context, e *query.Engine, _ []string, opts query.Options) ([]model.Row, error) {
			return e.KeypressesCount(ctx, opts)
		}))
	cmd.AddCommand(newQuerySubCmd("keypresses [pattern]", "Most frequent keypresses", cobra.MaximumNArgs(1),
		func(ctx context.Context, e *query.Engine, args []string, opts query.Options) ([]model.Row, error) {
			return e.Keypresses(ctx, argAt(args, 0), opts)
		}))
	cmd.AddCommand(newQuerySubCmd("bigrams [a1 [a2]]", "Most frequent bigrams", cobra.MaximumNArgs(2),
		func(ctx context.Context, e *query.Engine, args []string, opts query.Options) ([]model.Row, error) {
			return e.Bigrams(ctx, argAt(args, 0), argAt(args, 1), opts)
		}))
	cmd.AddCommand(newQuerySubCmd("trigrams [a1 [a2 [a3]]]", "Most frequent trigrams", cobra.MaximumNArgs(3),
		func(ctx context.Context, e *query.Engine, args []string, opts query.Options) ([]model.Row, error) {
			return e.Trigrams(ctx, argAt(args, 0), argAt(args, 1), argAt(args, 2), opts)
		}))
	return cmd
}

func newQuerySubCmd(use, short string, args cobra.PositionalArgs, fn queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, fn)
		},
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return "*"
}

func runQuery(cmd *cobra.Command, args []string, fn queryFunc) error {
	opts, format, err := queryOptions(cmd)
	if err != nil {
		return err
	}
	st, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close store", zap.Error(cerr))
		}
	}()

	rows, err := fn(cmd.Context(), query.New(st), args, opts)
	if err != nil {
		return err
	}
	return stats.Render(cmd.OutOrStdout(), rows, stats.Options{
		Format:     format,
		Fractional: opts.Fraction || opts.Renormalize,
		ForceColor: queryColor,
	})
}

// queryOptions merges [query] config values under explicitly set flags.
func queryOptions(cmd *cobra.Command) (query.Options, stats.Format, error) {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return query.Options{}, "", err
	}
	q := fileCfg.Query
	applyStringConfig(cmd, "contexts", &queryContexts, q.Contexts)
	applyIntConfig(cmd, "limit", &queryLimit, q.Limit)
	applyStringConfig(cmd, "format", &queryFormat, q.Format)

	format, err := stats.ParseFormat(queryFormat)
	if err != nil {
		return query.Options{}, "", err
	}
	if queryLimit < 0 {
		return query.Options{}, "", errors.New("limit must not be negative")
	}
	return query.OptionsFromConfig(model.QueryConfig{
		Contexts:    queryContexts,
		ByContext:   queryByContext,
		Limit:       queryLimit,
		Fraction:    queryFraction,
		Cumulative:  queryCumulative,
		Renormalize: queryRenormalize,
	}), format, nil
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live view of the most frequent n-grams",
		Args:  cobra.NoArgs,
		RunE:  runTopCmd,
	}
	cmd.Flags().StringVar(&topContexts, "contexts", "*", "comma-separated context patterns")
	cmd.Flags().IntVar(&topLimit, "limit", 100, "maximum rows per tab")
	cmd.Flags().DurationVar(&topRefresh, "refresh", topui.DefaultRefresh, "reload interval")
	return cmd
}

func runTopCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "contexts", &topContexts, fileCfg.Query.Contexts)

	st, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close store", zap.Error(cerr))
		}
	}()

	m := topui.NewModel(query.New(st), query.Options{Contexts: topContexts, Limit: topLimit}, topRefresh)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run live view: %w", err)
	}
	return nil
}
