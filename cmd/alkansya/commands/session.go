package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"alkansya/internal/api"
)

func loginCmd(st *state) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ALKANSYA_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			s, err := st.app.Gate.Login(cmd.Context(), api.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (display currency %s)\n", displayUser(s.UserID, email), s.Currency)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $ALKANSYA_PASSWORD or prompt)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.app.Gate.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func statusCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the stored session is still valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := st.app.Gate.Enter(cmd.Context())
			out := cmd.OutOrStdout()
			if !d.Proceed() {
				fmt.Fprintf(out, "Signed out (%s)\n", d.Reason)
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s\n", displayUser(d.UserID, ""))
			fmt.Fprintf(out, "Display currency: %s\n", d.Currency)
			return nil
		},
	}
}

func displayUser(userID, fallback string) string {
	switch {
	case userID != "":
		return userID
	case fallback != "":
		return fallback
	default:
		return "unknown user"
	}
}
