package main

import (
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"

	// Blank import registers the export-payments function target.
	_ "helloasso-export"

	"helloasso-export/internal/logger"
)

// main hosts the function locally and in the Cloud Functions runtime, which
// sets PORT and invokes the registered target over HTTP.
func main() {
	log := logger.NewCloud()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := funcframework.Start(port); err != nil {
		log.Fatal().Err(err).Msg("Function host failed")
	}
}
