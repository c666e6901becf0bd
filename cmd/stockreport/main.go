// stockreport serves the inventory and sales dashboards and their JSON API.
//
// Usage:
//
//	stockreport [serve] [--dev] [--config path] [--addr :3000]
//	stockreport export --report inventory|sales [--filter today] [--sort col] [--dir asc] [--out file.xlsx]
//
// Flags:
//
//	--dev     In-memory SQLite with demo rows and an in-process miniredis
//	--config  Path to stockreport.yaml (optional; defaults apply without it)
//	--addr    Override server.addr from config
//
// Environment:
//
//	STOCKREPORT_DSN                                      store DSN
//	PGHOST, PGPORT, PGUSER, PGPASSWORD, PGDATABASE       postgres DSN parts
//	BACKEND_URL                                          report API polled by the dashboard
package main

import (
	"fmt"
	"os"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "export") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "export":
		err = runExport(args)
	default:
		err = runServe(args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
