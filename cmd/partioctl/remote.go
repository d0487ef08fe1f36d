package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcadapter "github.com/simaogato/partio-backend/internal/adapter/grpc"
	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/money"
)

const remoteTimeout = 10 * time.Second

func (a *app) remoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Query a running ledger server",
	}

	cmd.PersistentFlags().String("server", "localhost:8080", "gRPC server address")
	cmd.PersistentFlags().String("token", "dev-token", "API token")
	cmd.PersistentFlags().String("user", "", "caller user ID")

	_ = a.v.BindPFlag("remote.server", cmd.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("remote.token", cmd.PersistentFlags().Lookup("token"))
	_ = a.v.BindPFlag("remote.user", cmd.PersistentFlags().Lookup("user"))

	cmd.AddCommand(&cobra.Command{
		Use:   "balances GROUP_ID",
		Short: "Show the balances of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Balances []domain.GroupBalance `json:"balances"`
			}
			currency, err := a.remoteGroupCall(cmd.Context(), "GetBalances", args[0], &resp)
			if err != nil {
				return err
			}
			return writeBalances(cmd.OutOrStdout(), resp.Balances, currency)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "settle GROUP_ID",
		Short: "Show the settlement suggestions of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Settlements []domain.SettlementSuggestion `json:"settlements"`
			}
			currency, err := a.remoteGroupCall(cmd.Context(), "GetSettlements", args[0], &resp)
			if err != nil {
				return err
			}

			if len(resp.Settlements) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All settled up.")
				return nil
			}
			for _, s := range resp.Settlements {
				formatted, err := money.Format(s.Amount, currency)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s pays %s %s\n", s.PayerID, s.ReceiverID, formatted)
			}
			return nil
		},
	})

	return cmd
}

func (a *app) remoteGroupCall(ctx context.Context, method, groupID string, resp any) (money.Currency, error) {
	user := a.v.GetString("remote.user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}

	conn, err := grpc.NewClient(a.v.GetString("remote.server"), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	client := grpcadapter.NewClient(conn, a.v.GetString("remote.token"), user)
	if err := client.Call(ctx, method, grpcadapter.GroupRequest{GroupID: groupID}, resp); err != nil {
		return "", err
	}

	return a.currency(), nil
}
