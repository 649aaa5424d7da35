package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kikiluvv/bytesize/internal/config"
	"github.com/kikiluvv/bytesize/internal/ffmpeg"
	"github.com/kikiluvv/bytesize/internal/index"
	"github.com/kikiluvv/bytesize/internal/logging"
	"github.com/kikiluvv/bytesize/internal/pipeline"
	"github.com/kikiluvv/bytesize/internal/transcript"
	"github.com/kikiluvv/bytesize/internal/watch"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile        string
	verbose        bool
	transcriptPath string
	outputDir      string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "bytesize",
	Short:         "bytesize - vertical highlight reels from long recordings",
	Long:          "Finds the loudest spoken moments of a recording and renders them as captioned vertical reels.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		logging.Init(logging.Options{
			Verbose: verbose,
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
		})

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&transcriptPath, "transcript", "", "use an existing transcript (.json or .srt) instead of speech-to-text")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "directory for rendered reels")

	watchCmd.Flags().Int("concurrency", 1, "recordings processed at once")
	watchCmd.Flags().Duration("settle", 2*time.Second, "how long a file must stop growing before it is processed")
	watchCmd.Flags().Bool("existing", false, "also process recordings already in the directory")
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().String("run", "", "show the reels of one run")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(reelsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// newPipeline wires codec and transcriber from configuration
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	codec, err := ffmpeg.New(log.Logger, ffmpeg.Options{
		BinaryPath: cfg.FFmpeg.BinaryPath,
		ProbePath:  cfg.FFmpeg.ProbePath,
		Threads:    cfg.FFmpeg.Threads,
		Preset:     cfg.FFmpeg.Preset,
		CRF:        cfg.FFmpeg.CRF,
	})
	if err != nil {
		return nil, err
	}

	tr, err := transcript.New(log.Logger, cfg.Transcriber, transcriptPath)
	if err != nil {
		return nil, err
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(log.Logger, codec, tr, opts), nil
}

// runOne processes one recording and records it in the index when configured
func runOne(ctx context.Context, p *pipeline.Pipeline, ix *index.Index, input string) error {
	logger := logging.WithComponent("cli")
	res, err := p.Run(ctx, input)
	if res != nil && ix != nil {
		if rerr := ix.Record(context.WithoutCancel(ctx), res); rerr != nil {
			logger.Warn().Err(rerr).Str("run", res.RunID).Msg("failed to record run")
		}
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("input", input).
			Str("kind", pipeline.KindOf(err).String()).
			Msg("run failed")
		return err
	}

	if res.Status == pipeline.StatusNoHighlights {
		fmt.Printf("%s: no highlights found\n", input)
		return nil
	}

	fmt.Println(reelsTable(res))
	if res.Status == pipeline.StatusPartial {
		return fmt.Errorf("%d of %d reels failed", len(res.Failures()), len(res.Reels))
	}
	return nil
}

func openIndex(cfg *config.Config) (*index.Index, error) {
	if cfg.Index.Path == "" {
		return nil, nil
	}
	return index.Open(cfg.Index.Path)
}

var reelsCmd = &cobra.Command{
	Use:   "reels [input video]",
	Short: "Render highlight reels for a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		ix, err := openIndex(cfg)
		if err != nil {
			return err
		}
		if ix != nil {
			defer ix.Close()
		}

		return runOne(cmd.Context(), p, ix, args[0])
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Show loudness peaks and the speech matched to them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		a, err := p.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.Info().
			Str("input", a.Input).
			Float64("duration", a.MediaDuration).
			Int("peaks", len(a.Peaks)).
			Int("relevant", len(a.Relevant)).
			Msg("analysis complete")

		fmt.Println(peaksTable(a.Peaks))
		if len(a.Relevant) == 0 {
			fmt.Println("no speech matched any peak")
			return nil
		}
		fmt.Println(relevantTable(a.Relevant))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Render reels for every recording dropped into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		settle, _ := cmd.Flags().GetDuration("settle")
		existing, _ := cmd.Flags().GetBool("existing")

		p, err := newPipeline(cfg)
		if err != nil {
			return err
		}

		ix, err := openIndex(cfg)
		if err != nil {
			return err
		}
		if ix != nil {
			defer ix.Close()
		}

		w, err := watch.New(log.Logger, watch.Options{
			Dir:         args[0],
			Concurrency: concurrency,
			Settle:      settle,
			Existing:    existing,
		}, func(ctx context.Context, path string) error {
			return runOne(ctx, p, ix, path)
		})
		if err != nil {
			return err
		}
		defer w.Stop()

		if err := w.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg.Index.Path == "" {
			return fmt.Errorf("index.path is not configured")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")

		ix, err := index.Open(cfg.Index.Path)
		if err != nil {
			return err
		}
		defer ix.Close()

		if runID != "" {
			reels, err := ix.Reels(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(reels) == 0 {
				return fmt.Errorf("no reels recorded for run %s", runID)
			}
			fmt.Println(indexedReelsTable(reels))
			return nil
		}

		runs, err := ix.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		fmt.Println(historyTable(runs))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file (.yaml or .toml)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err == nil {
			return fmt.Errorf("%s already exists", args[0])
		}
		if err := config.Default().Save(args[0]); err != nil {
			return err
		}
		logger := logging.WithComponent("cli")
		logger.Info().Str("path", args[0]).Msg("config written")
		return nil
	},
}
