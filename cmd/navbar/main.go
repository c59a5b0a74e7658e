package main

import (
	"log"

	"github.com/MrSnakeDoc/navbar/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ navbar failed to start: %v", err)
	}
}
