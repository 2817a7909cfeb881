// This script is a small convenience tool for manipulating user accounts in
// the configured server database.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/mugo/server/internal/auth"
	"github.com/mugo/server/internal/core"
	"github.com/mugo/server/internal/core/data"
	"gorm.io/gorm"
)

var (
	configFlag = flag.String("config", "./", "Path to the directory containing the server config file")
	add        = flag.Bool("add", false, "Add an account.")
	del        = flag.Bool("delete", false, "Soft delete an account.")
	pd         = flag.Bool("perm-delete", false, "Delete an account permanently.")
	help       = flag.Bool("help", false, "Print this usage info.")
)

func main() {
	flag.Parse()

	if help != nil && *help {
		flag.Usage()
		os.Exit(0)
	}

	config := core.LoadConfig(*configFlag)

	dataSource := config.PostgresURL()
	if config.Database.Engine == "sqlite" {
		dataSource = config.Database.Filename
	}
	db, err := data.Initialize(config.Database.Engine, dataSource, false)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = data.Shutdown(db)
	}()

	// defer so os.Exit doesn't prevent our clean up.
	retCode := 0
	defer func() {
		os.Exit(retCode)
	}()

	switch {
	case add != nil && *add:
		u := scanInput("Username")
		p := scanInput("Password")
		s := scanInput("Security code")
		e := scanInput("Email")
		if err := addAccount(db, config, u, p, s, e); err != nil {
			retCode = 1
			fmt.Println(err.Error())
		}
	case del != nil && *del:
		u := scanInput("Username")
		if err := deleteAccount(db, u, false); err != nil {
			retCode = 1
			fmt.Println(err.Error())
		}
	case pd != nil && *pd:
		u := scanInput("Username")
		if err := deleteAccount(db, u, true); err != nil {
			retCode = 1
			fmt.Println(err.Error())
		}
	default:
		flag.Usage()
		retCode = 1
	}
}

func scanInput(prompt string) string {
	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text()
}

func addAccount(db *gorm.DB, config *core.Config, username, password, securityCode, email string) error {
	authenticator := auth.NewAuthenticator(
		db,
		config.Auth.LockoutAttempts,
		config.Auth.LockoutTimeMax,
		config.Auth.HashCost,
	)
	account, err := authenticator.CreateAccount(username, password, securityCode, email)
	if err != nil {
		return fmt.Errorf("failed to create account: %v", err)
	}
	fmt.Println("created account with ID: ", account.ID)
	return nil
}

func deleteAccount(db *gorm.DB, username string, permanent bool) error {
	account, err := data.FindAccountByUsername(db, username)
	if err != nil {
		return fmt.Errorf("failed to look up account: %v", err)
	}
	if account == nil {
		return fmt.Errorf("no account with username %s", username)
	}

	if permanent {
		err = data.PermanentlyDeleteAccount(db, account)
	} else {
		err = data.DeleteAccount(db, account)
	}
	if err != nil {
		return fmt.Errorf("failed to delete account: %v", err)
	}
	fmt.Println("deleted account")
	return nil
}
