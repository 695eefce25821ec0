package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/client/client"
	"github.com/dmitrijs2005/photovault/internal/client/models"
	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *App) *cobra.Command {
	var userID, name, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the account id, name and API token on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.login(cmd.Context(), userID, name, token)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "account uuid (prompted when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&token, "token", "", "API bearer token (prompted when empty)")
	return cmd
}

// login saves the account on this device. The token is checked against the
// server when it is reachable. A device stays bound to its first account;
// logging in again as the same account only replaces name and token.
func (a *App) login(ctx context.Context, rawID, name, token string) error {
	var err error
	if rawID == "" {
		if rawID, err = getSimpleText(a.reader, "Enter user id", a.out); err != nil {
			return err
		}
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("bad user id %q: %w", rawID, err)
	}
	if token == "" {
		if token, err = getSimpleText(a.reader, "Enter API token", a.out); err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("empty token")
	}

	current, err := a.index.User(ctx)
	switch {
	case err == nil && current.ID != id:
		return fmt.Errorf("this device belongs to user %s", current.ID)
	case err != nil && !errors.Is(err, common.ErrUnauthorized):
		return err
	}

	c := client.NewHTTPClient(a.config.ServerURL, token, a.config.RequestTimeout)
	if _, err := c.GetKeys(ctx); err != nil {
		if !errors.Is(err, client.ErrUnavailable) {
			return fmt.Errorf("token rejected: %w", err)
		}
		a.log.Warn(ctx, "server unreachable, token not verified", "error", err)
	}

	if err := a.index.SaveUser(ctx, models.User{ID: id, Name: name, Token: token}); err != nil {
		return err
	}
	a.printf("Logged in as %s (%s)\n", id, name)
	return nil
}
