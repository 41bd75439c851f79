package main

import (
	"context"
	"fmt"

	"github.com/trezcool/attendo/core/user"
)

func (cli *commandLine) addUser(uname, name, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created user %q (%s)\n", usr.Username, usr.ID)
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = user.CheckPasswordPolicy(pwd, usr.Name, usr.Username); err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(ctx, uname, pwd)
}
