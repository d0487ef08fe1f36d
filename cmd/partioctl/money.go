package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
)

func (a *app) formatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format AMOUNT",
		Short: "Format a plain decimal amount in the currency's locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return domain.NewValidationError("invalid amount %q", args[0])
			}

			compact, _ := cmd.Flags().GetBool("compact")
			format := money.Format
			if compact {
				format = money.FormatCompact
			}

			out, err := format(amount, a.currency())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().Bool("compact", false, "use the compact notation")

	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse TEXT",
		Short: "Parse a formatted money string into a plain decimal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency := a.currency()

			amount, err := money.Parse(args[0], currency)
			if err != nil {
				return err
			}

			rounded, err := money.Round(amount, currency)
			if err != nil {
				return err
			}

			places, err := money.DecimalPlaces(currency)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), rounded.StringFixed(places))
			return nil
		},
	}
}
