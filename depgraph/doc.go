// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package depgraph provides the dependency graph that underlies cluster
// feerate ordering: for a bounded set of mutually-related transactions it
// tracks, per transaction, the full ancestor set, the full descendant set,
// and the transaction's own fee and size.
//
// # Structure
//
// Transactions are identified by dense, zero-based ClusterIndex handles
// assigned in insertion order. The graph is append-only: indices are never
// reused or renumbered and no removal operation exists. Its lifetime is
// scoped to one ordering computation over a single cluster.
//
// Both closure sets are maintained incrementally. After every exported
// operation the following hold for every index i:
//
//   - i is a member of both Ancestors(i) and Descendants(i)
//   - j ∈ Ancestors(i) exactly when i ∈ Descendants(j)
//   - both relations are transitively closed
//
// Acyclicity additionally holds as long as callers respect the documented
// preconditions of NewFromCluster and AddDependency; IsAcyclic verifies it
// on demand.
//
// # Usage
//
// Either build the whole graph at once from a topologically-ordered cluster
// description:
//
//	g := depgraph.NewFromCluster(cluster)
//	if !g.IsAcyclic() {
//	    // input was not a DAG
//	}
//
// or grow it one transaction and dependency at a time:
//
//	g := depgraph.New(0)
//	a := g.AddTransaction(feeA)
//	b := g.AddTransaction(feeB)
//	if g.CanAddDependency(a, b) {
//	    g.AddDependency(a, b)
//	}
//
// # Concurrency
//
// A DepGraph is owned by the computation that builds it and is not safe for
// concurrent mutation. Once construction is complete, all query methods are
// pure and may be called concurrently.
package depgraph
