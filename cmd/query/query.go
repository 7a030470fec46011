// Package query implements the sensorstream query client CLI.
package query

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"sensorstream/pkg/config"
)

const responseTimeout = 10 * time.Second

// Run dials a running server and issues queries. With arguments, each one is
// sent and its response printed; without arguments it reads queries from
// stdin, interactively when stdin is a terminal.
func Run(configPath string, queries []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		// The query client works without a config file.
		cfg = config.Default()
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.Query.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w\nIs 'sensorstream serve' running?", cfg.Query.ServerURL, err)
	}
	defer conn.Close()

	if len(queries) > 0 {
		for _, q := range queries {
			if err := roundTrip(conn, q); err != nil {
				return err
			}
		}
		return nil
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Printf("Connected to %s — type a query path, or 'exit' to quit.\n", cfg.Query.ServerURL)
		fmt.Println("Try 'system/components/all' to list every available path.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if interactive && (line == "exit" || line == "quit") {
			return nil
		}

		if err := roundTrip(conn, line); err != nil {
			return err
		}
	}
}

func roundTrip(conn *websocket.Conn, q string) error {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(q)); err != nil {
		return fmt.Errorf("sending query %q: %w", q, err)
	}

	conn.SetReadDeadline(time.Now().Add(responseTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("reading response for %q: %w", q, err)
	}

	fmt.Println(string(msg))
	return nil
}
