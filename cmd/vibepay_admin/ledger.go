package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/bootstrap"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/config"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listUser  string
	listRole  string
	listPage  int
	listLimit int
	listJSON  bool

	refundAmount int64
	refundReason string
	refundBy     string
)

var statusCmd = &cobra.Command{
	Use:   "status [transaction-id]",
	Short: "Show a ledger row and its commission and refund rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger rows visible to a user",
	Long: `List ledger rows the way the API shows them to a caller.

Examples:
  vibepay-admin list --role admin
  vibepay-admin list --user seller-1 --role seller --limit 50`,
	RunE: runList,
}

var refundCmd = &cobra.Command{
	Use:   "refund [transaction-id]",
	Short: "Refund a completed purchase",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefund,
}

func init() {
	listCmd.Flags().StringVar(&listUser, "user", "", "user id to list for")
	listCmd.Flags().StringVar(&listRole, "role", string(domain.RoleAdmin), "caller role (buyer, seller, admin)")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "page size")
	listCmd.Flags().BoolVarP(&listJSON, "json", "j", false, "output as JSON")

	refundCmd.Flags().Int64Var(&refundAmount, "amount", 0, "amount in the smallest currency unit (default: full purchase)")
	refundCmd.Flags().StringVar(&refundReason, "reason", "", "reason recorded on the refund")
	refundCmd.Flags().StringVar(&refundBy, "admin", "vibepay-admin", "operator id recorded on the refund")
	_ = refundCmd.MarkFlagRequired("reason")
}

func withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	app, err := bootstrap.Build(ctx, cfg, newLogger(), bootstrap.Options{})
	if err != nil {
		return err
	}
	defer app.Close()
	defer func() { _ = app.Runner.Wait(ctx) }()
	return fn(app)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(app *bootstrap.App) error {
		details, err := app.Services.Ledger.GetTransactionDetails(cmd.Context(), args[0], "", domain.RoleAdmin)
		if err != nil {
			return err
		}
		rows := append([]domain.Transaction{details.Transaction}, details.Children...)
		return printRows(cmd.OutOrStdout(), dto.ToTransactionResponses(rows))
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(app *bootstrap.App) error {
		res, err := app.Services.Ledger.ListTransactions(cmd.Context(), listUser, domain.UserRole(strings.ToLower(listRole)),
			dto.ListTransactionsParams{Page: listPage, Limit: listLimit})
		if err != nil {
			return err
		}
		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if err := printRows(cmd.OutOrStdout(), res.Transactions); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\npage %d, %d of %d rows\n", res.Page, len(res.Transactions), res.Total)
		return nil
	})
}

func runRefund(cmd *cobra.Command, args []string) error {
	req := dto.RefundRequest{Reason: refundReason}
	if cmd.Flags().Changed("amount") {
		req.Amount = &refundAmount
	}
	return withApp(cmd.Context(), func(app *bootstrap.App) error {
		res, err := app.Services.Refunds.Refund(cmd.Context(), args[0], req, refundBy)
		if err != nil {
			return err
		}
		return printRows(cmd.OutOrStdout(), dto.ToTransactionResponses([]domain.Transaction{res.Original, res.Refund}))
	})
}

func printRows(out io.Writer, rows []dto.TransactionResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tAMOUNT\tBUYER\tSELLER\tPROJECT\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TransactionID, r.Kind, r.Status,
			utils.FormatMinorUnits(r.Amount, r.CurrencyCode),
			r.BuyerID, r.SellerID, r.ProjectID,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
