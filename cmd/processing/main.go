package main

import (
	"os"

	"github.com/romariotrain/content-pipeline/internal/app"
)

func main() {
	code := app.Run("processing", run)
	os.Exit(code)
}
