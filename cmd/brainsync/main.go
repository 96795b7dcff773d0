package main

import (
	"log"

	"github.com/MrSnakeDoc/brainsync/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ brainsync failed to start: %v", err)
	}
}
