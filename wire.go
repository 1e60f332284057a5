//go:build wireinject
// +build wireinject

package main

import (
	"Musebox/cmd"
	"Musebox/internal/handlers"
	"Musebox/internal/services"
	"Musebox/internal/store"
	"github.com/google/wire"
)

func InitializeServer() (*cmd.Server, error) {
	wire.Build(
		cmd.NewServer,
		ProvideConfiguration,
		store.NewMetaStore,
		store.NewCharacterStore,
		store.NewSettingsStore,
		services.NewLogService,
		services.NewScannerService,
		services.NewTreeService,
		services.NewDuplicateService,
		services.NewReorderService,
		services.NewDescriptionCache,
		services.NewCivitaiService,
		services.NewTaggerService,
		services.NewUploadService,
		services.NewCharacterService,
		services.NewJanitorService,
		handlers.NewLoraHandler,
		handlers.NewCharacterHandler,
		handlers.NewListHandler,
		handlers.NewUploadHandler,
		handlers.NewConfigHandler,
	)
	return nil, nil
}
