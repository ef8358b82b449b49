package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"minirag/internal/config"
)

const defaultServerURL = "http://localhost:8000"

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:          "minirag",
		Short:        "Question answering with citations over uploaded documents",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./config.yaml, then ~/.config/minirag/config.yaml)")

	root.AddCommand(serveCMD(&cfgPath), uploadCMD(), askCMD(), indexCMD(&cfgPath), samplePDFCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
