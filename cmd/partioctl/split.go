package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
	"github.com/simaogato/partio-backend/internal/usecase/splitter"
)

func (a *app) splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split an amount among members",
		Long: `Split an amount among members with the EQUAL, EXACT or PERCENTAGE policy.

Members are given as id or id:Name. EXACT and PERCENTAGE need one value
per member, e.g. --values ana=60,bruno=40.`,
		Example: `  partioctl split --amount 100 --members ana,bruno,carla
  partioctl split --amount "1.234,56" --currency EUR --members a,b --type exact --values a=1000,b=234.56`,
		RunE: a.runSplit,
	}

	cmd.Flags().String("amount", "", "total amount, in any supported locale convention")
	cmd.Flags().StringSlice("members", nil, "members as id or id:Name")
	cmd.Flags().String("type", string(domain.SplitTypeEqual), "split type (equal, exact, percentage)")
	cmd.Flags().StringToString("values", nil, "per-member amounts or percentages")
	cmd.Flags().StringP("output", "o", "table", "output format (table, json)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("members")

	return cmd
}

func (a *app) runSplit(cmd *cobra.Command, _ []string) error {
	currency := a.currency()

	rawAmount, _ := cmd.Flags().GetString("amount")
	rawMembers, _ := cmd.Flags().GetStringSlice("members")
	rawType, _ := cmd.Flags().GetString("type")
	values, _ := cmd.Flags().GetStringToString("values")
	output, _ := cmd.Flags().GetString("output")

	amount, err := money.Parse(rawAmount, currency)
	if err != nil {
		return err
	}

	members := parseMembers(rawMembers)
	splitType := domain.SplitType(strings.ToUpper(rawType))

	custom, err := parseValues(values, splitType, currency)
	if err != nil {
		return err
	}

	a.logger.Debug("splitting expense",
		zap.String("amount", amount.String()),
		zap.String("currency", string(currency)),
		zap.Int("members", len(members)),
		zap.String("type", string(splitType)),
	)

	result, err := splitter.CalculateSplits(splitter.Input{
		TotalAmount:  amount,
		Currency:     currency,
		Members:      members,
		SplitType:    splitType,
		CustomSplits: custom,
	})
	if err != nil {
		return err
	}

	summary := splitter.Summary(result.Splits, members)

	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	return writeSplitTable(cmd.OutOrStdout(), summary, currency)
}

func writeSplitTable(out io.Writer, summary []splitter.SplitSummary, currency money.Currency) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tAMOUNT\tSHARE")

	total := decimal.Zero
	for _, s := range summary {
		formatted, err := money.Format(s.Amount, currency)
		if err != nil {
			return err
		}

		share := ""
		if s.Percentage != nil {
			share = s.Percentage.String() + "%"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.UserName, formatted, share)
		total = total.Add(s.Amount)
	}

	formatted, err := money.Format(total, currency)
	if err != nil {
		return err
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", formatted)

	return tw.Flush()
}

// parseMembers reads id or id:Name entries
func parseMembers(raw []string) []domain.ExpenseMember {
	members := make([]domain.ExpenseMember, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, found := strings.Cut(entry, ":")
		if !found {
			name = id
		}
		members = append(members, domain.ExpenseMember{ID: id, Name: name})
	}
	return members
}

func parseValues(values map[string]string, splitType domain.SplitType, currency money.Currency) ([]domain.CustomSplit, error) {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	custom := make([]domain.CustomSplit, 0, len(ids))
	for _, id := range ids {
		raw := values[id]

		if splitType == domain.SplitTypePercentage {
			pct, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
			if err != nil {
				return nil, domain.NewValidationError("invalid percentage %q for %s", raw, id)
			}
			custom = append(custom, domain.CustomSplit{UserID: id, Percentage: &pct})
			continue
		}

		amount, err := money.Parse(raw, currency)
		if err != nil {
			return nil, err
		}
		custom = append(custom, domain.CustomSplit{UserID: id, Amount: &amount})
	}

	return custom, nil
}

func (a *app) currency() money.Currency {
	return money.Currency(strings.ToUpper(a.v.GetString("currency")))
}
