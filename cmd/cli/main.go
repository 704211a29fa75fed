package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultURL     = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "balanceledger-cli",
		Short:         "Balance ledger CLI tool",
		Long:          `A command line interface for the balance ledger HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("url", defaultURL, "Base URL of the ledger API (env LEDGER_URL)")
	rootCmd.PersistentFlags().Duration("timeout", defaultTimeout, "Request timeout (env LEDGER_TIMEOUT)")
	_ = v.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	client := func() *apiClient {
		return newAPIClient(strings.TrimRight(v.GetString("url"), "/"), v.GetDuration("timeout"))
	}

	rootCmd.AddCommand(
		newBalanceCmd(client),
		newPostingCmd("deposit", "Deposit funds", "/deposit", client),
		newPostingCmd("withdraw", "Withdraw funds", "/withdraw", client),
		newHistoryCmd(client),
		newVerifyCmd(client),
	)

	return rootCmd
}
