// Package main is the entry point for the wrk2mid API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/wrk2mid/pkg/api"
	"github.com/james-see/wrk2mid/pkg/logger"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := logger.InitLogger(*level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Starting wrk2mid API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
