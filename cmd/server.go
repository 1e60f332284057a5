package cmd

import (
	"Musebox/internal/config"
	"Musebox/internal/handlers"
	"Musebox/internal/services"
)

type Server struct {
	Configuration    *config.Configuration
	LogService       services.LogService
	LoraHandler      *handlers.LoraHandler
	CharacterHandler *handlers.CharacterHandler
	ListHandler      *handlers.ListHandler
	UploadHandler    *handlers.UploadHandler
	ConfigHandler    *handlers.ConfigHandler
	JanitorService   *services.Janitor
}

func NewServer(
	configuration *config.Configuration,
	logService services.LogService,
	loraHandler *handlers.LoraHandler,
	characterHandler *handlers.CharacterHandler,
	listHandler *handlers.ListHandler,
	uploadHandler *handlers.UploadHandler,
	configHandler *handlers.ConfigHandler,
	janitorService *services.Janitor,
) *Server {
	return &Server{
		Configuration:    configuration,
		LogService:       logService,
		LoraHandler:      loraHandler,
		CharacterHandler: characterHandler,
		ListHandler:      listHandler,
		UploadHandler:    uploadHandler,
		ConfigHandler:    configHandler,
		JanitorService:   janitorService,
	}
}
