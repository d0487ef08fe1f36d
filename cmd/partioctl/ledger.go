package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/ledger"
)

func (a *app) balancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show member balances of a YAML ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.loadReport(cmd)
			if err != nil {
				return err
			}
			return writeBalances(cmd.OutOrStdout(), report.Balances, report.Currency)
		},
	}
	cmd.Flags().StringP("file", "f", "", "ledger YAML file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) settleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Suggest the transfers that settle a YAML ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.loadReport(cmd)
			if err != nil {
				return err
			}
			return writeSettlements(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringP("file", "f", "", "ledger YAML file (- for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) loadReport(cmd *cobra.Command) (*ledger.Report, error) {
	path, _ := cmd.Flags().GetString("file")

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		defer f.Close()
		in = f
	}

	file, err := ledger.Load(in)
	if err != nil {
		return nil, err
	}

	report, err := ledger.Evaluate(file)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("ledger evaluated",
		zap.Int("expenses", len(report.Expenses)),
		zap.Int("members", len(report.Balances)),
	)

	return report, nil
}

func writeBalances(out io.Writer, balances []domain.GroupBalance, currency money.Currency) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tBALANCE")

	for _, b := range balances {
		formatted, err := money.Format(b.Balance, currency)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", displayName(b), formatted)
	}

	return tw.Flush()
}

func writeSettlements(out io.Writer, report *ledger.Report) error {
	if len(report.Settlements) == 0 {
		fmt.Fprintln(out, "All settled up.")
		return nil
	}

	names := make(map[string]string, len(report.Balances))
	for _, b := range report.Balances {
		names[b.UserID] = displayName(b)
	}

	for _, s := range report.Settlements {
		formatted, err := money.Format(s.Amount, report.Currency)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s pays %s %s\n", names[s.PayerID], names[s.ReceiverID], formatted)
	}

	return nil
}

func displayName(b domain.GroupBalance) string {
	if b.UserName != "" {
		return b.UserName
	}
	return b.UserID
}
