package serve

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const defaultConfigTemplate = `[server]
  listen_addr      = "0.0.0.0"
  port             = 8546
  refresh_interval = "2s"
  push_updates     = false
  log_level        = "info"

[probe]
  cpu     = true
  gpu     = true
  memory  = true
  storage = true
  network = true
  host    = true

[announce]
  enabled         = false
  multicast_group = "239.255.0.1"
  port            = 5679
  interval        = "30s"
  shared_secret   = "CHANGE_ME"

[query]
  server_url = "ws://127.0.0.1:8546/stream"
`

// EditConfig opens the configuration file in the system editor.
// If the file does not exist, it creates it with default values.
func EditConfig(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Create file if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Creating new config file at %s...\n", path)
		if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	// Determine editor
	editor := os.Getenv("EDITOR")
	if editor == "" {
		for _, e := range []string{"vi", "nano", "vim"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}

	if editor == "" {
		return fmt.Errorf("no editor found ($EDITOR environment variable not set, and vi/nano/vim not in PATH)")
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
