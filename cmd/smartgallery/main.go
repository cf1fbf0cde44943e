package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/borkya1/smart-gallery/internal/di"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/joho/godotenv"
)

func main() {
	// Optional; the environment may already carry everything.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %s\n", err)
		os.Exit(1)
	}

	var flags structures.CliFlags
	kong.Parse(&flags,
		kong.Name("smartgallery"),
		kong.Description("SmartGallery backend: image upload, tagging and search"),
		kong.UsageOnError(),
	)

	if _, err := di.InitApp(&flags); err != nil {
		fmt.Fprintf(os.Stderr, "smartgallery: %s\n", err)
		os.Exit(1)
	}
}
