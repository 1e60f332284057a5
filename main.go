package main

import (
	"log"

	"Musebox/internal/config"
	"Musebox/internal/server"
)

func ProvideConfiguration() (*config.Configuration, error) {
	return config.LoadConfiguration("musebox.yaml")
}

func main() {
	srv, err := InitializeServer()
	if err != nil {
		log.Fatal(err)
	}
	srv.JanitorService.StartCleanCycle()

	server.NewApp(srv, srv.Configuration)
}
