package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/authkeeper/internal/client/api"
	"github.com/dmitrijs2005/authkeeper/internal/client/cli"
	clientconfig "github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	serverCfg := config.LoadConfig()
	clientCfg := clientconfig.LoadConfig()

	backend, err := server.NewApp(serverCfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer backend.Close()

	cacheDB, err := credentials.InitDatabase(ctx, clientCfg.CachePath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cacheDB.Close()

	binding := api.NewLocalBinding(backend.Auth, models.DeviceMeta{UserAgent: "authkeeper-cli"})
	controller := session.NewController(binding, credentials.NewSQLiteStore(cacheDB), logging.NewNop(), session.Options{
		RenewalLead:    clientCfg.RenewalLead,
		RenewalTimeout: clientCfg.RenewalTimeout,
	})

	app := cli.NewApp(controller, backend.Auth, backend.Reset, os.Stdin, os.Stdout)
	app.Run(ctx)
}
