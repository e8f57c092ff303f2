package main

import (
	"flag"
	"log"
	"os"

	cfgPkg "github.com/bryn/sage/pkg/config"
	"github.com/bryn/sage/server"
)

func main() {
	var configPath string
	var config server.Config

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.Model, "model", "mistral", "LLM model to use")
	flag.IntVar(&config.MaxIterations, "max-iterations", 5, "Maximum agent reasoning iterations")
	flag.Parse()

	if cfg, err := cfgPkg.LoadConfig(configPath); err == nil {
		if config.BaseURL == "" {
			config.BaseURL = cfg.LLM.BaseURL
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	s := server.NewWSServer(config)
	if err := s.ListenAndServe(":" + port); err != nil {
		log.Fatal(err)
	}
}
