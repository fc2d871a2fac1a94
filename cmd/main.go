package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/lumo-engine/internal/app"
)

func main() {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	addr := ":" + a.Cfg.Port
	a.Log.Info("Engine listening", "addr", addr)
	if err := a.Router.Run(addr); err != nil {
		a.Log.Error("Server failed", "error", err)
	}
}
