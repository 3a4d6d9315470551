package main

import (
	"flag"
	"log"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/startup"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
)

func main() {
	flag.StringVar(&config.ConfigFile, "config", config.ConfigFile, "path to the YAML checker/extension config")
	flag.Parse()

	if err := startup.Initialize(); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}

	log.Println("Application has shut down gracefully.")
}
