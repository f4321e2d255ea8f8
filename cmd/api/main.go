package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "helpdesk",
		Usage: "Internal help desk ticketing service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMigrate,
			},
			{
				Name:  "token",
				Usage: "Mint a development session token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
				},
				Action: runToken,
			},
			{
				Name:  "grant",
				Usage: "Map an account to a role in the user directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Required: true, Usage: "employee, it_owner, hr_owner, administration_owner, accounts_owner or admin"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.BoolFlag{Name: "inactive", Usage: "Mark the account inactive"},
				},
				Action: runGrant,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
