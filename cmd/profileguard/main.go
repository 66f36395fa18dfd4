// profileguard is the offline CLI: score payloads, inspect classifier
// artifacts and generate development certificates.
//
// Usage:
//
//	profileguard score [-f payload.json] [--artifact path] [--policy file] [--quick]
//	profileguard artifact inspect <path>
//	profileguard certs --out <dir> [--host localhost]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
