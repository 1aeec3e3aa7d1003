package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/collector"
	"github.com/spf13/cobra"
)

type collectFlags struct {
	sink             string
	terms            string
	requestCap       int
	videosPerTag     int
	window           time.Duration
	maxExecutionTime time.Duration
	jsonOutput       bool
}

func newCollectCmd() *cobra.Command {
	var f collectFlags

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Walk the configured hashtags once and merge new videos into the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyCollectFlags(cmd, f, &cfg); err != nil {
				return err
			}

			built, err := collector.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer built.Close()

			res, runErr := built.Runner.Run(cmd.Context())
			if f.jsonOutput {
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), collector.Message(res))
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&f.sink, "sink", "", "where to write the dataset: local or s3")
	cmd.Flags().StringVar(&f.terms, "terms", "", "comma separated hashtags, overrides SEARCH_TERMS")
	cmd.Flags().IntVar(&f.requestCap, "request-cap", 0, "maximum candidates pulled across all hashtags")
	cmd.Flags().IntVar(&f.videosPerTag, "videos-per-tag", 0, "rows to collect per hashtag")
	cmd.Flags().DurationVar(&f.window, "window", 0, "recency window, e.g. 168h")
	cmd.Flags().DurationVar(&f.maxExecutionTime, "max-execution-time", 0, "wall-clock budget for the run, 0 for none")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "print the run result as JSON")
	return cmd
}

// applyCollectFlags overrides cfg with the flags the user actually set.
func applyCollectFlags(cmd *cobra.Command, f collectFlags, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("sink") {
		cfg.Sink = config.Sink(f.sink)
	}
	if flags.Changed("terms") {
		cfg.SearchTerms = config.ParseTerms(f.terms)
	}
	if flags.Changed("request-cap") {
		cfg.RequestCap = f.requestCap
	}
	if flags.Changed("videos-per-tag") {
		cfg.VideosPerTag = f.videosPerTag
	}
	if flags.Changed("window") {
		cfg.RecencyWindow = f.window
	}
	if flags.Changed("max-execution-time") {
		cfg.MaxExecutionTime = f.maxExecutionTime
	}
	return cfg.Validate()
}
