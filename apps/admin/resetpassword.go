package main

import (
	"context"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	p, err := cli.accSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	return cli.accSvc.UpdatePassword(ctx, p.Base().ID, pwd)
}
