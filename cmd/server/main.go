/*
main.go - Application entry point

PURPOSE:
  Command-line entry point for the premium engine. Wires configuration,
  logging, the SQLite store and the policy service, then runs a command.

COMMANDS:
  serve     Start the HTTP API (and the expiration scheduler)
  expire    Expire due policies once and exit
  quote     Price a policy without committing anything

GLOBAL FLAGS:
  --config   YAML config file (missing file = defaults)
  --db       SQLite database path; ":memory:" for in-memory
  --seed     YAML catalog loaded at startup
  -v         Debug logging

STARTUP SEQUENCE:
  1. Load config, apply flag overrides
  2. Initialize logging
  3. Open SQLite store, load the seed catalog if configured
  4. Run the command

EXAMPLES:
  # Serve with a seeded in-memory database
  ./server serve --db=":memory:" --seed=factory/testdata/catalog.yaml

  # Nightly expiration from cron
  ./server expire --config=/etc/premium/config.yaml

  # Inspect pricing for a draft
  ./server quote 6f1c...

SEE ALSO:
  - commands.go: subcommands
  - api/server.go: Router configuration
  - internal/config/config.go: configuration keys
*/
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
