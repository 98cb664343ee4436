// Package cli provides the interactive productkeeper command-line client.
//
// It wires configuration, the HTTP API client and a REPL. Typical flow:
// register or log in, then list, create and delete products.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or stdin is closed. See App and runREPL for details.
package cli
