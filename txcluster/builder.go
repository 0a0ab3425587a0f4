// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txcluster converts concrete transactions into the abstract cluster
// form consumed by the depgraph package. Given a set of transactions assumed
// to belong to one cluster, it discovers the direct spend dependencies
// between them by outpoint matching, orders them topologically, and feeds
// them to the bulk graph constructor. Which transactions form a cluster is
// the caller's decision; this package never adds or drops members.
package txcluster

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/btcsuite/clusterdag/depgraph"
	"github.com/btcsuite/clusterdag/feefrac"
	"github.com/btcsuite/clusterdag/indexset"
)

var (
	// ErrDuplicateTx is returned when the same transaction appears more
	// than once in the input.
	ErrDuplicateTx = errors.New("duplicate transaction in cluster")

	// ErrMissingFee is returned when no fee is known for one of the
	// cluster's transactions.
	ErrMissingFee = errors.New("no fee provided for transaction")

	// ErrDependencyCycle is returned when the spend relationships between
	// the given transactions cannot be ordered topologically. This cannot
	// happen for real transactions (a cycle would require a hash
	// preimage), but malformed test inputs can produce it.
	ErrDependencyCycle = errors.New("transaction dependencies form a cycle")
)

// Graph is a dependency graph built from concrete transactions, along with
// the mapping between graph indices and transaction hashes.
type Graph struct {
	// DepGraph holds the dependency closures and feerates. Its indices
	// are positions in TxHashes.
	DepGraph *depgraph.DepGraph

	// TxHashes lists the transaction hash for every graph index, in the
	// topological order the graph was built in.
	TxHashes []chainhash.Hash
}

// Index returns the graph index of the given transaction hash.
func (g *Graph) Index(hash chainhash.Hash) (depgraph.ClusterIndex, bool) {
	for i, h := range g.TxHashes {
		if h == hash {
			return depgraph.ClusterIndex(i), true
		}
	}
	return 0, false
}

// graphNode tracks one transaction while the dependency edges are being
// discovered.
type graphNode struct {
	tx       *btcutil.Tx
	outEdges []chainhash.Hash
	inDegree int
}

// Build constructs a dependency graph from the given transactions and their
// fees. Spend relationships are discovered by matching each input's previous
// outpoint against the other transactions in the set; inputs referencing
// transactions outside the set create no edges. Transaction sizes are taken
// from the serialized size of each transaction.
//
// The returned graph is always acyclic and its indices follow a valid
// topological order of the spend relationships.
func Build(txs []*btcutil.Tx,
	fees map[chainhash.Hash]btcutil.Amount) (*Graph, error) {

	nodes := make(map[chainhash.Hash]*graphNode, len(txs))
	for _, tx := range txs {
		hash := *tx.Hash()
		if _, ok := nodes[hash]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateTx, hash)
		}
		if _, ok := fees[hash]; !ok {
			return nil, fmt.Errorf("%w: %v", ErrMissingFee, hash)
		}
		nodes[hash] = &graphNode{tx: tx}
	}

	// Mark a directed edge from every referenced in-set transaction to
	// the transaction spending it, and track input degrees for the
	// topological sort below. Multiple inputs spending the same parent
	// only count as one edge.
	numEdges := 0
	for _, tx := range txs {
		hash := *tx.Hash()
		seen := make(map[chainhash.Hash]bool)
		for _, txIn := range tx.MsgTx().TxIn {
			prevHash := txIn.PreviousOutPoint.Hash
			parent, ok := nodes[prevHash]
			if !ok || seen[prevHash] {
				continue
			}
			seen[prevHash] = true

			parent.outEdges = append(parent.outEdges, hash)
			nodes[hash].inDegree++
			numEdges++
		}
	}

	// Kahn's algorithm. Starting from the transactions that spend nothing
	// inside the set, repeatedly release transactions whose in-set
	// parents have all been ordered. The input slice order is used for
	// the initial roots so the result is deterministic for a fixed input.
	order := make([]chainhash.Hash, 0, len(txs))
	queue := make([]chainhash.Hash, 0, len(txs))
	for _, tx := range txs {
		if nodes[*tx.Hash()].inDegree == 0 {
			queue = append(queue, *tx.Hash())
		}
	}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		order = append(order, hash)

		for _, childHash := range nodes[hash].outEdges {
			child := nodes[childHash]
			child.inDegree--
			if child.inDegree == 0 {
				queue = append(queue, childHash)
			}
		}
	}
	if len(order) != len(txs) {
		return nil, ErrDependencyCycle
	}

	// With a topological order in hand, translate hashes to dense
	// indices and assemble the bulk-construction input.
	position := make(map[chainhash.Hash]depgraph.ClusterIndex, len(order))
	for i, hash := range order {
		position[hash] = depgraph.ClusterIndex(i)
	}

	cluster := make(depgraph.Cluster, len(order))
	for i, hash := range order {
		node := nodes[hash]

		var parents indexset.Set
		seen := make(map[chainhash.Hash]bool)
		for _, txIn := range node.tx.MsgTx().TxIn {
			prevHash := txIn.PreviousOutPoint.Hash
			if _, ok := nodes[prevHash]; !ok || seen[prevHash] {
				continue
			}
			seen[prevHash] = true
			parents.Add(position[prevHash])
		}

		cluster[i] = depgraph.ClusterTx{
			FeeRate: feefrac.FeeFrac{
				Fee:  fees[hash],
				Size: int32(node.tx.MsgTx().SerializeSize()),
			},
			Parents: parents,
		}
	}

	log.Tracef("Built cluster graph with %d transactions and %d "+
		"dependencies", len(order), numEdges)

	return &Graph{
		DepGraph: depgraph.NewFromCluster(cluster),
		TxHashes: order,
	}, nil
}
