package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-progressive-acoustics/pkg/config"
	"github.com/df07/go-progressive-acoustics/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "JSON config file used as the base for every request")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("Error loading config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	webServer := server.NewServer(*port).WithConfig(cfg)

	log.Printf("Progressive Acoustics Web Server")
	log.Printf("Stream a simulation from http://localhost:%d/api/simulate?scene=shoebox", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
