package main

import (
	"context"
	"log"

	"github.com/TARATRAOVO/rhodes-resonance/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
