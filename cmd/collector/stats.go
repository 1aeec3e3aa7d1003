package main

import (
	"fmt"
	"time"

	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/collector"
	"github.com/spacesedan/tokharvest/internal/dataset"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var sink string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics about the stored dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sink") {
				cfg.Sink = config.Sink(sink)
			}

			table, err := collector.OpenTable(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			rows, found, err := table.Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No dataset at %s\n", table.Location())
				return nil
			}

			s := dataset.ComputeStats(rows)
			fmt.Fprintf(out, "Dataset:            %s\n", table.Location())
			fmt.Fprintf(out, "Total videos:       %d\n", s.TotalRows)
			fmt.Fprintf(out, "Distinct authors:   %d\n", s.DistinctAuthors)
			fmt.Fprintf(out, "With top comments:  %d\n", s.RowsWithComments)
			fmt.Fprintf(out, "With thumbnails:    %d\n", s.RowsWithThumbnail)
			if s.TotalRows > 0 {
				fmt.Fprintf(out, "Posted between:     %s and %s\n",
					s.EarliestPost.Format(time.DateOnly), s.LatestPost.Format(time.DateOnly))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sink, "sink", "", "dataset location: local or s3")
	return cmd
}
