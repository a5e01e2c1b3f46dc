package commands

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"alkansya/internal/core"
	"alkansya/internal/currency"
)

func convertCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount between currencies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			d := st.app.Gate.Enter(cmd.Context())
			if !d.Proceed() {
				return errSignInRequired
			}

			from, to := core.NormalizeCurrency(args[1]), core.NormalizeCurrency(args[2])
			out := cmd.OutOrStdout()
			var runErr error
			st.app.Tracker.Apply(cmd.Context(), amount, from, to, d.Token, func(res currency.Result, err error) {
				var unavailable *core.ConversionUnavailableError
				switch {
				case errors.As(err, &unavailable):
					fmt.Fprintf(out, "%s (conversion to %s unavailable)\n", core.NewAmount(amount, from), to)
				case err != nil:
					runErr = st.authFailed(cmd, d, err)
				default:
					line := fmt.Sprintf("%s = %s (rate %s)", res.Original(), res.Converted(), res.RateUsed.String())
					if res.SourceWasFallback {
						line += " estimated, live rates unavailable"
					}
					fmt.Fprintln(out, line)
				}
			})
			return runErr
		},
	}
}

func ratesCmd(st *state) *cobra.Command {
	var popular bool
	cmd := &cobra.Command{
		Use:   "rates [BASE | FROM TO]",
		Short: "List exchange rates against a base currency, or quote one pair",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := st.app.Gate.Enter(cmd.Context())
			if !d.Proceed() {
				return errSignInRequired
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			if len(args) == 2 {
				rate, estimated, err := st.app.Rates.Rate(cmd.Context(), d.Token, args[0], args[1])
				if err != nil {
					return st.authFailed(cmd, d, err)
				}
				line := fmt.Sprintf("1 %s = %s %s", core.NormalizeCurrency(args[0]), rate.String(), core.NormalizeCurrency(args[1]))
				if estimated {
					line += " (estimated, live rates unavailable)"
				}
				fmt.Fprintln(out, line)
				return nil
			}

			if popular {
				list, estimated, err := st.app.Rates.Popular(cmd.Context(), d.Token)
				if err != nil {
					return st.authFailed(cmd, d, err)
				}
				for _, p := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\n", p.Code, p.Name, p.Rate.String(), p.ChangePercent.StringFixed(2))
				}
				tw.Flush()
				if estimated {
					fmt.Fprintln(out, "(estimated, live rates unavailable)")
				}
				return nil
			}

			base := d.Currency
			if len(args) == 1 {
				base = args[0]
			}
			base = core.NormalizeCurrency(base)
			rates, estimated, err := st.app.Rates.Rates(cmd.Context(), d.Token, base)
			if err != nil {
				return st.authFailed(cmd, d, err)
			}
			codes := make([]string, 0, len(rates))
			for code := range rates {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			fmt.Fprintf(out, "1 %s =\n", base)
			for _, code := range codes {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", code, rates[code].String(), currency.DisplayName(code))
			}
			tw.Flush()
			if estimated {
				fmt.Fprintln(out, "(estimated, live rates unavailable)")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&popular, "popular", false, "show popular currencies with their recent change")
	return cmd
}

func currencyCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "currency CODE",
		Short: "Change the display currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.app.Dashboard.ChangeCurrency(cmd.Context(), args[0]); err != nil {
				if core.IsAuthError(err) {
					return errSignInRequired
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Display currency set to %s\n", core.NormalizeCurrency(args[0]))
			return nil
		},
	}
}
