package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/mintern/forum/config"
	"github.com/mintern/forum/models"
	"github.com/mintern/forum/routes"
	"github.com/mintern/forum/services"
	"github.com/mintern/forum/utils"
)

func main() {
	app := cli.NewApp()
	app.Name = "mintern"
	app.Usage = "Mintern forum backend"
	app.Before = setup
	app.Action = serve
	app.Commands = []*cli.Command{
		{
			Action:      serve,
			Name:        "serve",
			Usage:       "Start the HTTP server",
			Description: `Migrates the database, grants approver roles from config and serves the API until SIGTERM.`,
		},
		{
			Action:      migrate,
			Name:        "migrate",
			Usage:       "Migrate the database and seed the signup catalogs",
			Description: `Creates or updates every table, then inserts the default majors and subject tags.`,
		},
	}

	if err := app.Run(os.Args); err != nil {
		utils.Sugar.Fatalf("mintern: %v", err)
	}
}

func setup(*cli.Context) error {
	// Initialize logger early
	return utils.InitLogger(config.Load())
}

func openDatabase() *gorm.DB {
	return config.InitDatabase(models.All()...)
}

func serve(c *cli.Context) error {
	cfg := config.Get()
	db := openDatabase()

	mentors := services.NewMentorService(db, nil, cfg.RequiredApprovals)
	if n, err := mentors.SeedApprovers(c.Context, cfg.ApproverUsernames); err != nil {
		utils.Sugar.Warnf("approver roles not seeded: %v", err)
	} else {
		utils.Sugar.Infof("approver roles granted to %d configured users", n)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(":"+cfg.AppPort, r, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, func() {
		_ = utils.Logger.Sync()
	})
}

func migrate(c *cli.Context) error {
	db := openDatabase()
	if err := services.NewAccountService(db).SeedCatalog(c.Context); err != nil {
		return err
	}
	utils.Sugar.Info("database migrated and catalogs seeded")
	return nil
}
