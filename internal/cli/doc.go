// Package cli implements the command-line interface for odds-alchemist.
//
// The cli package provides the Cobra-based CLI with commands to extract odds
// from a page (extract), run one fetch-and-append cycle (sync), and serve the
// HTTP API (serve). It loads configuration, builds the zap logger, and wires
// the scraper, extract, sink, and pipeline packages together.
package cli
