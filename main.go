// sensorstream — live hardware telemetry over websockets
//
// Usage:
//
//	sensorstream serve  — sample local hardware and serve query clients
//	sensorstream query  — connect to a server and issue path queries
//	sensorstream edit   — edit the configuration file
package main

import (
	"fmt"
	"os"

	"sensorstream/cmd/query"
	"sensorstream/cmd/serve"
)

const (
	defaultSystemPath = "/etc/sensorstream/config.toml"
	defaultLocalPath  = "config.toml"
	version           = "1.0.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	// Parse --config flag if present
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			args = append(args[:i], args[i+2:]...)
			i--
			continue
		}
		if len(arg) > 9 && arg[:9] == "--config=" {
			configPath = arg[9:]
			args = append(args[:i], args[i+1:]...)
			i--
			continue
		}
	}

	// Auto-discover config if not specified
	if configPath == "" {
		if _, err := os.Stat(defaultLocalPath); err == nil {
			configPath = defaultLocalPath
		} else {
			configPath = defaultSystemPath
		}
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	subcommand := args[0]
	var err error

	switch subcommand {
	case "serve":
		err = serve.Run(configPath)
	case "query":
		err = query.Run(configPath, args[1:])
	case "edit":
		err = serve.EditConfig(configPath)
	case "version":
		fmt.Printf("sensorstream v%s\n", version)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`sensorstream v%s — live hardware telemetry over websockets

Usage:
  sensorstream <command> [--config <path>]

Commands:
  serve    Start the telemetry server (sampling + websocket transport)
  query    Connect to a server and issue query paths (interactive without args)
  edit     Edit the configuration file in your system editor
  version  Print version information
  help     Show this help message

Options:
  --config <path>  Path to config file (default: looks for ./config.toml, then %s)

Examples:
  sensorstream serve                         # Start server with default config
  sensorstream query system/components/all   # List every available query path
  sensorstream query cpu/0/temperature/core1 # Read one sensor value
  sensorstream edit                          # Edit configuration

`, version, defaultSystemPath)
}
