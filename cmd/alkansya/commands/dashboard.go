package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"alkansya/internal/dashboard"
)

type periodFlags struct {
	month int
	year  int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.month, "month", 0, "month 1-12 (default current month)")
	cmd.Flags().IntVar(&p.year, "year", 0, "four digit year (default current year)")
}

func (p *periodFlags) period(now time.Time) dashboard.Period {
	period := dashboard.CurrentPeriod(now)
	if p.month != 0 {
		period.Month = p.month
	}
	if p.year != 0 {
		period.Year = p.year
	}
	return period
}

func dashboardCmd(st *state) *cobra.Command {
	var pf periodFlags
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the monthly overview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := st.app.Dashboard.Load(cmd.Context(), pf.period(time.Now()))
			if err != nil {
				return err
			}
			if report.Redirect {
				return errSignInRequired
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func exportCmd(st *state) *cobra.Command {
	var pf periodFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the monthly overview to Google Sheets or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := st.app.Dashboard.Load(cmd.Context(), pf.period(time.Now()))
			if err != nil {
				return err
			}
			if report.Redirect {
				return errSignInRequired
			}
			res, err := st.app.Exporter.Export(cmd.Context(), report)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.SheetsErr != nil {
				fmt.Fprintf(out, "Google Sheets unavailable (%v), wrote CSV instead\n", res.SheetsErr)
			}
			fmt.Fprintf(out, "Exported %s to %s:\n", report.Period, res.Destination)
			for _, ref := range res.Refs {
				fmt.Fprintf(out, "  %s\n", ref)
			}
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func printReport(out io.Writer, r dashboard.Report) {
	fmt.Fprintf(out, "Dashboard %s\n", r.Period)
	if r.Notice != "" {
		fmt.Fprintf(out, "! %s\n", r.Notice)
	}
	if len(r.Failed) > 0 {
		fmt.Fprintf(out, "  not loaded: %s\n", strings.Join(r.Failed, ", "))
	}
	if r.NoData {
		return
	}

	if len(r.Figures) > 0 {
		fmt.Fprintf(out, "\nSummary (%s)\n", r.DisplayCurrency)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, f := range r.Figures {
			note := ""
			switch {
			case f.Unavailable:
				note = "rate unavailable"
			case f.Estimated:
				note = "estimated"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Field, f.Converted, note)
		}
		tw.Flush()
	}

	d := r.Data
	if len(d.Budgets) > 0 {
		fmt.Fprintln(out, "\nBudgets")
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, b := range d.Budgets {
			fmt.Fprintf(tw, "  %s\t%s\t%s spent\t%s left\n",
				b.Category,
				b.MonthlyBudget.StringFixed(2),
				b.TotalSpent.StringFixed(2),
				b.Remaining().StringFixed(2))
		}
		tw.Flush()
	}
	fmt.Fprintf(out, "\n%d incomes, %d expenses, %d savings goals\n",
		len(d.Incomes), len(d.Expenses), len(d.SavingsGoals))
}
