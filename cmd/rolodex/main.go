package main

import (
	"log"

	"github.com/rolodexhq/rolodex/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ rolodex failed to start: %v", err)
	}
}
