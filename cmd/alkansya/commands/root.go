package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"alkansya/internal/auth"
	"alkansya/internal/cli"
	"alkansya/internal/core"
)

// errSignInRequired is returned by commands that need a session
var errSignInRequired = errors.New("sign in required: run `alkansya login`")

type state struct {
	app *cli.App
}

// authFailed turns a rejected token into a sign-in prompt and forgets the
// session the token came from. Other errors pass through.
func (st *state) authFailed(cmd *cobra.Command, d auth.Decision, err error) error {
	if !core.IsAuthError(err) {
		return err
	}
	st.app.Gate.Expire(cmd.Context(), d.Epoch, auth.ReasonAuthRequired)
	return errSignInRequired
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:          "alkansya",
		Short:        "Personal finance dashboard client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig(cli.SetupLogger("info", "text"))
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st.app, err = cli.Wire(ctx, cfg, logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st.app == nil {
				return nil
			}
			return st.app.Close()
		},
	}

	root.AddCommand(
		loginCmd(st),
		logoutCmd(st),
		statusCmd(st),
		dashboardCmd(st),
		exportCmd(st),
		convertCmd(st),
		ratesCmd(st),
		currencyCmd(st),
		sheetsAuthCmd(st),
	)
	return root
}
