package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	employeeModel "github.com/zhouzirui/staffbook/backend/internal/model/employee"
	employeeService "github.com/zhouzirui/staffbook/backend/internal/service/employee"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored employees as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			// list only reads; a missing file is reported instead of created.
			if _, err := os.Stat(cfg.Store.DataFile); err != nil {
				return fmt.Errorf("data file %s: %w", cfg.Store.DataFile, err)
			}

			store, err := employeeModel.NewCSVStore(cfg.Store.DataFile)
			if err != nil {
				return fmt.Errorf("open employee store: %w", err)
			}

			records, err := employeeService.NewService(store, nil).List(cmd.Context())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
