// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// dagstat is a utility that inspects a serialized cluster dependency graph.
// It validates the graph's topology, then prints per-transaction fee, size,
// and dependency information along with aggregate cluster statistics.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/davecgh/go-spew/spew"

	"github.com/btcsuite/clusterdag/depgraph"
	"github.com/btcsuite/clusterdag/indexset"
)

var (
	cfg *config
	log btclog.Logger
)

// readGraph reads and decodes the dependency graph named by the config,
// handling the optional hex encoding and stdin input.
func readGraph() (*depgraph.DepGraph, error) {
	var in io.Reader
	if cfg.InFile == "-" {
		in = os.Stdin
	} else {
		fi, err := os.Open(cfg.InFile)
		if err != nil {
			return nil, err
		}
		defer fi.Close()
		in = fi
	}

	if cfg.Hex {
		raw, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		decoded, err := hex.DecodeString(
			strings.TrimSpace(string(raw)),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
		in = bytes.NewReader(decoded)
	}

	return depgraph.Deserialize(in)
}

// printGraph writes the per-transaction table and the aggregate statistics
// for the graph to stdout.
func printGraph(g *depgraph.DepGraph) {
	fmt.Printf("transactions: %d\n", g.TxCount())

	var all []uint32
	for i := depgraph.ClusterIndex(0); i < g.TxCount(); i++ {
		all = append(all, i)

		fmt.Printf("tx %3d: feerate %v, %d ancestors, %d "+
			"descendants, parents %v\n", i, g.FeeRate(i),
			g.Ancestors(i).Count(), g.Descendants(i).Count(),
			g.ReducedParents(i))

		if cfg.Verbose {
			fmt.Printf("        ancestors %v\n", g.Ancestors(i))
			fmt.Printf("        descendants %v\n", g.Descendants(i))
		}
	}

	total := g.TotalFeeRate(indexset.FromSlice(all...))
	fmt.Printf("aggregate feerate: %v\n", total)
}

// realMain is the real main function for the utility.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func realMain() error {
	// Load configuration and parse command line.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg

	// Setup logging.
	backendLogger := btclog.NewBackend(os.Stdout)
	defer os.Stdout.Sync()
	log = backendLogger.Logger("MAIN")
	level, _ := btclog.LevelFromString(cfg.DebugLevel)
	log.SetLevel(level)

	g, err := readGraph()
	if err != nil {
		log.Errorf("Failed to read graph from %v: %v", cfg.InFile, err)
		return err
	}
	log.Debugf("Decoded graph: %v", spew.Sdump(g))

	if !g.IsAcyclic() {
		// Deserialize rejects cyclic graphs, so this indicates a bug
		// rather than bad input.
		err := fmt.Errorf("decoded graph is not acyclic")
		log.Errorf("%v", err)
		return err
	}

	printGraph(g)
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		os.Exit(1)
	}
}
