package commands

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"alkansya/internal/sheets/google"
)

func sheetsAuthCmd(st *state) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets export with your Google account",
		Long: "Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or\n" +
			"GOOGLE_OAUTH_CLIENT_FILE and saves the token for GOOGLE_OAUTH_TOKEN_FILE.\n" +
			"Add http://127.0.0.1:<OAUTH_REDIRECT_PORT>/callback to the client's redirect URIs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := st.app.Config
			oauthCfg, err := google.OAuthConfig(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.GoogleOAuthTokenFile
			}
			if out == "" {
				out = "token.json"
			}

			ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", cfg.OAuthRedirectPort))
			if err != nil {
				return fmt.Errorf("listen for oauth redirect: %w", err)
			}

			w := cmd.OutOrStdout()
			tok, err := google.Authorize(cmd.Context(), oauthCfg, ln, func(url string) {
				fmt.Fprintf(w, "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := google.SaveToken(out, tok); err != nil {
				return err
			}
			fmt.Fprintf(w, "Saved token to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "token file (default $GOOGLE_OAUTH_TOKEN_FILE or token.json)")
	return cmd
}
