package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/clients"
	"github.com/spacesedan/tokharvest/internal/db"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs <run-id>",
		Short: "Show a recorded run from the run ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.RunsTableName == "" {
				return errors.New("RUNS_TABLE_NAME is not configured")
			}

			aws, err := clients.NewAWSClients(cmd.Context(), clients.AWSOptions{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
			if err != nil {
				return err
			}
			res, location, err := db.NewRunLedger(aws.DynamoDB(), cfg.RunsTableName).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(struct {
				Location string `json:"location"`
				Run      any    `json:"run"`
			}{location, res}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
