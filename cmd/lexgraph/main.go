// lexgraph is the CLI of the precedent retrieval engine.
//
// Usage:
//
//	lexgraph serve [--addr=:8080] [--config=lexgraph.yaml]
//	lexgraph ingest <records.yaml|records.json|brief.txt>... [--workers=4]
//	lexgraph retrieve "<issue text>" [--lawyer=<id>] [--limit=10]
//	lexgraph reindex --type=hnsw|ivfflat
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
