package main

import (
	"context"

	"github.com/zombieTDV/studentms/core/account"
)

// addAdmin creates a new admin account from the command line.
func (cli *commandLine) addAdmin(uname, email, pwd string) error {
	ctx := context.Background()

	na := account.NewAdmin{
		Username: uname,
		Email:    email,
		Password: pwd,
	}
	if err := na.Validate(ctx, cli.accSvc); err != nil {
		return err
	}
	adm, err := cli.accSvc.CreateAdmin(ctx, na)
	if err != nil {
		return err
	}
	logger.Printf("admin %q created (id=%s)", adm.Username, adm.ID)
	return nil
}
