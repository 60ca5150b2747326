// Command genconfig renders the effective configuration (.env, environment
// and defaults) to config/config.<env>.yaml after validating it.
//
//	go run ./cmd/genconfig [environment]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func main() {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		fmt.Println("ERROR: .env file not found!")
		fmt.Println("Create one from .env.example and fill in the required values:")
		fmt.Println("cp .env.example .env")
		os.Exit(1)
	}
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error reading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	env := string(cfg.Server.Environment)
	if len(os.Args) > 1 {
		env = os.Args[1]
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Printf("Error marshaling YAML: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll("config", 0o755); err != nil {
		fmt.Printf("Error creating config directory: %v\n", err)
		os.Exit(1)
	}
	filename := filepath.Join("config", fmt.Sprintf("config.%s.yaml", env))
	if err := os.WriteFile(filename, out, 0o600); err != nil {
		fmt.Printf("Error writing config file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated %s\n", filename)
}
