package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitease/internal/config"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/service"
	"github.com/mmynk/splitease/internal/storage/sqlite"
)

func newDebtsCmd(cfg *config.Config) *cobra.Command {
	var (
		groupID  string
		optimize bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "debts",
		Short: "Print who owes whom",
		Long:  "Computes debts directly from the local database, without a running server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			debts := service.NewDebtService(store, 0, metrics.New())
			report, err := debts.GetDebts(cmd.Context(), models.Scope{GroupID: groupID}, optimize)
			if err != nil {
				return err
			}

			if asJSON {
				return printDebtsJSON(cmd.OutOrStdout(), report)
			}
			return printDebtsTable(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "Restrict to one group ID")
	cmd.Flags().BoolVar(&optimize, "optimize", true, "Simplify debts across the whole scope")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

type debtLine struct {
	Debtor   string       `json:"debtor"`
	Creditor string       `json:"creditor"`
	Amount   money.Amount `json:"amount"`
}

func printDebtsJSON(w io.Writer, report *service.DebtReport) error {
	lines := make([]debtLine, len(report.Debts))
	for i, d := range report.Debts {
		lines[i] = debtLine{Debtor: d.Debtor, Creditor: d.Creditor, Amount: d.Amount}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Mode     service.Mode            `json:"mode"`
		Version  int64                   `json:"version"`
		Debts    []debtLine              `json:"debts"`
		Balances map[string]money.Amount `json:"balances"`
	}{report.Mode, report.Version, lines, report.Balances})
}

func printDebtsTable(w io.Writer, report *service.DebtReport) error {
	if len(report.Debts) == 0 {
		_, err := fmt.Fprintln(w, "All settled up.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEBTOR\tCREDITOR\tAMOUNT")
	for _, d := range report.Debts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Debtor, d.Creditor, d.Amount)
	}
	fmt.Fprintln(tw)

	names := make([]string, 0, len(report.Balances))
	for name := range report.Balances {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(tw, "IDENTITY\tNET")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", name, report.Balances[name])
	}
	return tw.Flush()
}
