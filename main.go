package main

import (
	"github.com/Faioumy3/FazarahFajr01/config"
	"github.com/Faioumy3/FazarahFajr01/models"
	"github.com/Faioumy3/FazarahFajr01/routes"
	"github.com/Faioumy3/FazarahFajr01/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{})

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
