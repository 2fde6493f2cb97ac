package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/drivebay/drivebay/internal/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: discover)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("drivebayd %s\n", version)
		os.Exit(0)
	}

	// No config file is fine; the daemon runs on defaults.
	path := *configPath
	if path == "" {
		if discovered, err := config.Discover(); err == nil {
			path = discovered
		}
	}

	if err := runServer(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
