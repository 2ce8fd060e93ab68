package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-backoffice/internal/services/auth"
)

func newCreateSuperuserCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a superuser or promote an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			db, err := e.storage()
			if err != nil {
				return err
			}
			defer closeWith(e.log, "storage", db)

			service := auth.New(db, jwt.NewJWTMaker(e.cfg.JWTToken.JWTSecretKey, e.cfg.JWTToken.TokenTTL))
			id, err := service.CreateSuperuser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superuser #%d %s is ready\n", id, email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
