package cli

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/spf13/cobra"
)

func newKeysCommand(a *App) *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage the account key pair",
	}
	keys.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Load, recover or create the key pair of this account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.initKeys(cmd.Context())
		},
	})
	return keys
}

func (a *App) initKeys(ctx context.Context) error {
	u, c, err := a.session(ctx)
	if err != nil {
		return err
	}

	passphrase, err := getPassphrase(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(passphrase)

	if _, err := a.keyService(c).Init(ctx, u.ID, passphrase); err != nil {
		return err
	}
	a.printf("Key ready for %s\n", u.ID)
	return nil
}
