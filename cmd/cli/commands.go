package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
)

var errInconsistentLedger = errors.New("ledger chain is inconsistent")

func newBalanceCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.BalanceResponse
			if err := client().call(cmd.Context(), http.MethodGet, "/balance", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", resp.Amount)
			return nil
		},
	}
}

func newPostingCmd(use, short, path string, client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			var resp dto.BalanceResponse
			req := dto.AmountRequest{Amount: amount}
			if err := client().call(cmd.Context(), http.MethodPost, path, req, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", resp.Amount)
			return nil
		},
	}
}

func newHistoryCmd(client func() *apiClient) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List ledger entries in posting order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/entries?limit=%d&offset=%d", limit, offset)

			var resp dto.ListEntriesResponse
			if err := client().call(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tKIND\tAMOUNT\tBALANCE\tCREATED\tID")
			for _, e := range resp.Entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					e.Sequence, e.Kind, e.Amount, e.BalanceAfter, e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), e.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip")

	return cmd
}

func newVerifyCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the entry chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, raw, err := client().do(cmd.Context(), http.MethodGet, "/ledger/verify", nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK && status != http.StatusConflict {
				return decodeAPIError(status, raw)
			}

			var report dto.VerifyResponse
			if err := json.Unmarshal(raw, &report); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			if !report.Consistent {
				fmt.Fprintf(out, "Verification FAILED at sequence %d: %s\n", report.BrokenAtSequence, report.Reason)
				return errInconsistentLedger
			}

			fmt.Fprintf(out, "Verification PASSED\nEntries: %d\nBalance: %s\n", report.Entries, report.Balance)
			return nil
		},
	}
}
