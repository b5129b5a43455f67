package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ngram-keylogger/internal/collect"
	"github.com/verte-zerg/ngram-keylogger/internal/config"
	"github.com/verte-zerg/ngram-keylogger/internal/device"
	"github.com/verte-zerg/ngram-keylogger/internal/model"
	"github.com/verte-zerg/ngram-keylogger/internal/ngram"
	"github.com/verte-zerg/ngram-keylogger/internal/store"
	"github.com/verte-zerg/ngram-keylogger/internal/translate"
	"github.com/verte-zerg/ngram-keylogger/internal/window"
)

const (
	defaultTranslator  = "standard"
	defaultContextPoll = time.Second
	sourceXprop        = "xprop"
	sourceI3           = "i3"
	sourceSway         = "sway"
	inputDir           = "/dev/input"
)

var (
	collectTranslator   string
	collectRestDuration time.Duration
	collectSaveMin      int
	collectSaveMax      int
	collectFilters      []string
	collectContextPoll  time.Duration
	collectContextSrc   string
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [devices...]",
		Short: "Record n-gram statistics from keyboard devices",
		Long: "Reads key events from the given evdev devices (or every keyboard found)\n" +
			"and accumulates per-context n-gram counts in the database.",
		RunE: runCollectCmd,
	}
	cmd.Flags().StringVar(&collectTranslator, "translator", defaultTranslator, "event translator")
	cmd.Flags().DurationVar(&collectRestDuration, "rest-duration", translate.DefaultRestDuration, "inactivity that breaks n-grams")
	cmd.Flags().IntVar(&collectSaveMin, "save-min", ngram.DefaultSaveMin, "minimum unsaved keypresses before a save")
	cmd.Flags().IntVar(&collectSaveMax, "save-max", ngram.DefaultSaveMax, "unsaved keypresses that trigger a save (0 disables)")
	cmd.Flags().StringSliceVar(&collectFilters, "filters", nil, "filter chain, in order")
	cmd.Flags().DurationVar(&collectContextPoll, "context-poll", defaultContextPoll, "active window poll interval (xprop)")
	cmd.Flags().StringVar(&collectContextSrc, "context-source", sourceXprop, "focused window source: xprop, i3 or sway")
	return cmd
}

func runCollectCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	collectCfg, err := collectConfig(cmd, fileCfg, args)
	if err != nil {
		return err
	}

	filterNames := collectCfg.Filters
	if len(filterNames) == 0 {
		filterNames = config.DefaultFilters
	}
	filters, err := config.BuildFilters(fileCfg, filterNames, logger)
	if err != nil {
		return err
	}
	rules, err := config.ContextRules(fileCfg)
	if err != nil {
		return err
	}

	var background []func(ctx context.Context) error
	var contexts window.Source = window.Static("")
	if len(rules) > 0 {
		source, run, err := contextSource(rules)
		if err != nil {
			return err
		}
		contexts = source
		background = append(background, run)
	}

	translator, err := translate.New(collectCfg.Translator, translate.Options{
		RestDuration: collectCfg.RestDuration,
		Contexts:     contexts,
	})
	if err != nil {
		return err
	}

	devices := collectCfg.Devices
	if len(devices) == 0 {
		found, err := device.Keyboards()
		if err != nil {
			return fmt.Errorf("failed to discover keyboards: %w", err)
		}
		for _, d := range found {
			logger.Info("found keyboard", zap.String("name", d.Name), zap.String("path", d.Path))
			devices = append(devices, d.Path)
		}
	}
	if len(devices) == 0 {
		return errors.New("no keyboard devices found; pass device paths explicitly")
	}

	st, err := store.Open(collectCfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close store", zap.Error(cerr))
		}
	}()

	router := ngram.NewRouter(st, ngram.Thresholds{
		SaveMin: collectCfg.SaveMin,
		SaveMax: collectCfg.SaveMax,
	}, logger)

	waker := device.NewWaker()
	readers := make([]*device.Reader, len(devices))
	for i, path := range devices {
		readers[i] = device.NewReader(path, waker, logger)
	}
	background = append(background, func(ctx context.Context) error {
		if err := device.Watch(ctx, inputDir, waker, logger); err != nil {
			logger.Warn("device hotplug watch unavailable", zap.Error(err))
		}
		return nil
	})

	collector := &collect.Collector{
		Source: func(ctx context.Context, out chan<- model.Event) error {
			return device.ReadAll(ctx, readers, out)
		},
		Pipeline: &collect.Pipeline{
			Translator: translator,
			Filters:    filters,
			Router:     router,
			Log:        logger,
		},
		Background: background,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	logger.Info("collecting",
		zap.Strings("devices", devices),
		zap.String("db", collectCfg.DBPath),
		zap.String("translator", collectCfg.Translator),
		zap.Strings("filters", filterNames),
	)
	if err := collector.Run(ctx); err != nil {
		return err
	}
	logger.Info("stopped", zap.Strings("contexts", router.Contexts()))
	return nil
}

// collectConfig merges config file values under explicitly set flags.
func collectConfig(cmd *cobra.Command, fileCfg config.FileConfig, args []string) (model.CollectConfig, error) {
	c := fileCfg.Collect
	applyStringConfig(cmd, "translator", &collectTranslator, c.Translator)
	applyDurationConfig(cmd, "rest-duration", &collectRestDuration, c.RestDuration)
	applyIntConfig(cmd, "save-min", &collectSaveMin, c.SaveMin)
	applyIntConfig(cmd, "save-max", &collectSaveMax, c.SaveMax)
	applySliceConfig(cmd, "filters", &collectFilters, c.Filters)
	applyDurationConfig(cmd, "context-poll", &collectContextPoll, c.ContextPoll)
	applyStringConfig(cmd, "context-source", &collectContextSrc, c.ContextSource)

	if collectSaveMin < 0 || collectSaveMax < 0 {
		return model.CollectConfig{}, errors.New("save thresholds must not be negative")
	}
	if collectSaveMax > 0 && collectSaveMin > collectSaveMax {
		return model.CollectConfig{}, fmt.Errorf("save-min (%d) must not exceed save-max (%d)", collectSaveMin, collectSaveMax)
	}
	if collectRestDuration <= 0 {
		return model.CollectConfig{}, errors.New("rest duration must be positive")
	}
	if collectContextPoll <= 0 {
		return model.CollectConfig{}, errors.New("context poll interval must be positive")
	}
	switch collectContextSrc {
	case sourceXprop, sourceI3, sourceSway:
	default:
		return model.CollectConfig{}, fmt.Errorf("unknown context source %q (available: %s, %s, %s)",
			collectContextSrc, sourceI3, sourceSway, sourceXprop)
	}

	devices := args
	if len(devices) == 0 {
		devices = c.Devices
	}
	return model.CollectConfig{
		Devices:      devices,
		DBPath:       dbPath,
		Translator:   collectTranslator,
		RestDuration: collectRestDuration,
		SaveMin:      collectSaveMin,
		SaveMax:      collectSaveMax,
		Filters:      collectFilters,
	}, nil
}

// contextSource builds the focused-window tracker selected by
// --context-source. A tracker that loses its window manager keeps its last
// context and logs once; collection goes on.
func contextSource(rules window.Rules) (window.Source, func(ctx context.Context) error, error) {
	switch collectContextSrc {
	case sourceI3, sourceSway:
		if collectContextSrc == sourceSway {
			if err := window.UseSwaySocket(); err != nil {
				return nil, nil, err
			}
		}
		tracker := window.NewI3(rules, logger)
		return tracker, func(ctx context.Context) error {
			if err := tracker.Run(ctx); err != nil {
				logger.Warn("window events unavailable", zap.Error(err))
			}
			return nil
		}, nil
	default:
		poller := window.NewPoller(rules, collectContextPoll, logger)
		return poller, func(ctx context.Context) error {
			poller.Run(ctx)
			return nil
		}, nil
	}
}
