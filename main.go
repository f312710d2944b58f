package main

import (
	"log"

	"yashubustudio/objectlens/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Printf("objectlens: %v", err)
	}
}
