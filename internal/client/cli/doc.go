// Package cli provides the interactive SimKeeper command-line client.
//
// It wires configuration, the local session store, the API services and a
// read-eval-print loop. A session saved by a previous run for the same
// server is restored on start, so the user stays logged in between runs.
//
// Commands:
//   - register / login / logout / me / verify-tum
//   - list [page] [per_page], show <id>
//   - create, update <id>, delete <id>, bulk-delete <id>...
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
