// Package cli provides the interactive tamperscan command-line client.
//
// It wires configuration, local storage, the session controller, API services
// and an interactive REPL. Typical flow: restore the previous session, then
// execute user commands until exit.
//
// Commands:
//   - register / login / logout
//   - upload <path>   send a document for tamper detection
//   - history         list past detections (requires login)
//   - status          show who is logged in
//
// Protected commands pass through the guard package; an anonymous user is
// sent to the login prompt instead.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
