// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package depgraph

import (
	"github.com/btcsuite/clusterdag/feefrac"
	"github.com/btcsuite/clusterdag/indexset"
)

// ClusterIndex is the dense, zero-based handle of a transaction within a
// cluster graph. Indices are assigned in insertion order and remain stable
// for the lifetime of the graph.
type ClusterIndex = uint32

// ClusterTx describes one transaction of a cluster used as bulk-construction
// input: its own feerate and the set of its direct parents.
type ClusterTx struct {
	// FeeRate is the fee and size of the transaction itself.
	FeeRate feefrac.FeeFrac

	// Parents holds the indices of the transactions this one directly
	// depends on. Indirect (transitively implied) parents may be included
	// but are not required.
	Parents indexset.Set
}

// Cluster is an ordered list of transactions with their direct dependencies,
// the input format of NewFromCluster.
type Cluster []ClusterTx

// entry holds the preprocessed data for a single transaction.
type entry struct {
	// feeRate is the fee and size of the transaction itself.
	feeRate feefrac.FeeFrac

	// ancestors is the set of all transactions that must be included
	// whenever this one is, including the transaction itself.
	ancestors indexset.Set

	// descendants is the set of all transactions that require this one,
	// including the transaction itself.
	descendants indexset.Set
}

// DepGraph holds a transaction cluster's preprocessed dependency data: per
// transaction, its feerate and its full ancestor and descendant closures.
//
// Methods taking a ClusterIndex panic, like slice indexing, when given an
// index at or beyond TxCount.
type DepGraph struct {
	entries []entry
}

// New returns a graph of ntx transactions with no dependencies and zero
// feerates. Feerates can be filled in through SetFeeRate.
//
// Complexity: O(N) where N=ntx.
func New(ntx ClusterIndex) *DepGraph {
	g := &DepGraph{entries: make([]entry, ntx)}
	for i := ClusterIndex(0); i < ntx; i++ {
		g.entries[i].ancestors = indexset.Singleton(i)
		g.entries[i].descendants = indexset.Singleton(i)
	}
	return g
}

// NewFromCluster builds the full transitive closure for the given cluster.
//
// The cluster must list transactions in a topological order of the intended
// graph: every direct parent of transaction i must appear at an index lower
// than i. This precondition is not checked; violating it silently yields an
// incomplete closure. The constructor likewise does not verify that the
// input describes a DAG. Callers without an order guarantee by construction
// must check IsAcyclic afterwards.
//
// Complexity: O(N^2) where N=len(cluster).
func NewFromCluster(cluster Cluster) *DepGraph {
	g := &DepGraph{entries: make([]entry, len(cluster))}

	// Seed each entry with its feerate and direct parents, making every
	// transaction an ancestor of itself.
	for i, tx := range cluster {
		g.entries[i].feeRate = tx.FeeRate
		g.entries[i].ancestors = tx.Parents.Clone()
		g.entries[i].ancestors.Add(ClusterIndex(i))
	}

	// Propagate ancestor information with a single forward sweep. Because
	// parents precede children in the input, by the time i is processed
	// the ancestor set of i is already complete, and merging it into
	// every entry that lists i as an ancestor completes those in turn.
	for i := range g.entries {
		toMerge := g.entries[i].ancestors.Clone()
		for j := range g.entries {
			if g.entries[j].ancestors.Contains(ClusterIndex(i)) {
				g.entries[j].ancestors.Union(toMerge)
			}
		}
	}

	// Derive descendant information by inverting the ancestor relation.
	for i := range g.entries {
		for a := range g.entries[i].ancestors.Members() {
			g.entries[a].descendants.Add(ClusterIndex(i))
		}
	}

	return g
}

// TxCount returns the number of transactions in the graph.
//
// Complexity: O(1).
func (g *DepGraph) TxCount() ClusterIndex {
	return ClusterIndex(len(g.entries))
}

// FeeRate returns the feerate of transaction i.
//
// Complexity: O(1).
func (g *DepGraph) FeeRate(i ClusterIndex) feefrac.FeeFrac {
	return g.entries[i].feeRate
}

// SetFeeRate overwrites the feerate of transaction i.
//
// Complexity: O(1).
func (g *DepGraph) SetFeeRate(i ClusterIndex, feeRate feefrac.FeeFrac) {
	g.entries[i].feeRate = feeRate
}

// Ancestors returns the ancestor set of transaction i, including i itself.
// The returned set is the graph's internal state and must not be modified by
// the caller; clone it first if mutation is needed.
//
// Complexity: O(1).
func (g *DepGraph) Ancestors(i ClusterIndex) indexset.Set {
	return g.entries[i].ancestors
}

// Descendants returns the descendant set of transaction i, including i
// itself. The returned set is the graph's internal state and must not be
// modified by the caller; clone it first if mutation is needed.
//
// Complexity: O(1).
func (g *DepGraph) Descendants(i ClusterIndex) indexset.Set {
	return g.entries[i].descendants
}

// AddTransaction appends a new transaction with no dependencies to the graph
// and returns its index.
//
// Complexity: amortized O(1).
func (g *DepGraph) AddTransaction(feeRate feefrac.FeeFrac) ClusterIndex {
	newIdx := g.TxCount()
	g.entries = append(g.entries, entry{
		feeRate:     feeRate,
		ancestors:   indexset.Singleton(newIdx),
		descendants: indexset.Singleton(newIdx),
	})
	return newIdx
}

// AddDependency records that child depends on parent: parent must be
// included whenever child is. Both closures are updated incrementally.
//
// Cycles and redundancy are not detected here; use CanAddDependency first
// when that guarantee is needed. Re-adding an already-implied dependency is
// a harmless no-op in effect. Adding a dependency where child is already an
// ancestor of parent creates a cycle that permanently breaks the graph's
// acyclicity.
//
// Complexity: O(N) where N=TxCount().
func (g *DepGraph) AddDependency(parent, child ClusterIndex) {
	// Every ancestor of the parent gains the child's descendants.
	childDes := g.entries[child].descendants
	for ancOfPar := range g.Ancestors(parent).Members() {
		g.entries[ancOfPar].descendants.Union(childDes)
	}

	// Every descendant of the child gains the parent's ancestors.
	parAnc := g.entries[parent].ancestors
	for desOfChl := range g.Descendants(child).Members() {
		g.entries[desOfChl].ancestors.Union(parAnc)
	}
}

// ReducedParents returns the minimal set of direct parents of transaction i
// whose combined ancestry regenerates Ancestors(i): every ancestor of i that
// is also an ancestor of another surviving parent is pruned away.
//
// Complexity: O(N) where N=TxCount().
func (g *DepGraph) ReducedParents(i ClusterIndex) indexset.Set {
	ret := g.Ancestors(i).Clone()
	ret.Remove(i)
	for a := range ret.Members() {
		// An earlier candidate's ancestry may have pruned a away
		// already; only survivors prune further.
		if ret.Contains(a) {
			ret.Subtract(g.Ancestors(a))
			ret.Add(a)
		}
	}
	return ret
}

// ReducedChildren returns the minimal set of direct children of transaction
// i whose combined descendancy regenerates Descendants(i). It is the mirror
// of ReducedParents.
//
// Complexity: O(N) where N=TxCount().
func (g *DepGraph) ReducedChildren(i ClusterIndex) indexset.Set {
	ret := g.Descendants(i).Clone()
	ret.Remove(i)
	for d := range ret.Members() {
		if ret.Contains(d) {
			ret.Subtract(g.Descendants(d))
			ret.Add(d)
		}
	}
	return ret
}

// TotalFeeRate returns the aggregate feerate of an arbitrary set of
// transactions in this graph. The empty set yields the zero FeeFrac.
//
// Complexity: O(M) where M=set.Count().
func (g *DepGraph) TotalFeeRate(set indexset.Set) feefrac.FeeFrac {
	var ret feefrac.FeeFrac
	for i := range set.Members() {
		ret = ret.Add(g.entries[i].feeRate)
	}
	return ret
}

// IsAcyclic reports whether the graph contains no dependency cycles: for
// every transaction, the only index its ancestor and descendant sets share
// is the transaction itself.
//
// Complexity: O(N) where N=TxCount().
func (g *DepGraph) IsAcyclic() bool {
	for i := ClusterIndex(0); i < g.TxCount(); i++ {
		inter := g.Ancestors(i).Intersection(g.Descendants(i))
		if !inter.Equal(indexset.Singleton(i)) {
			return false
		}
	}
	return true
}

// CanAddDependency reports whether adding a dependency between parent and
// child is both meaningful and valid: it returns false when the dependency
// is already implied (child is a descendant of parent), when it would create
// a cycle (child is an ancestor of parent), or when it would render an
// existing direct dependency redundant.
//
// Complexity: O(N^2) where N=TxCount().
func (g *DepGraph) CanAddDependency(parent, child ClusterIndex) bool {
	// Already implied: the dependency would be redundant.
	if g.Descendants(parent).Contains(child) {
		return false
	}

	// Already reversed: the dependency would create a cycle.
	if g.Ancestors(parent).Contains(child) {
		return false
	}

	// If an ancestor of parent has a direct child among the descendants
	// of child, that existing dependency becomes redundant once the new
	// one is in place.
	childDes := g.Descendants(child)
	for i := range g.Ancestors(parent).Members() {
		if g.Descendants(i).Intersects(childDes) {
			if g.ReducedChildren(i).Intersects(childDes) {
				return false
			}
		}
	}

	return true
}

// Equal reports whether both graphs hold the same transactions with the same
// feerates and identical dependency closures.
func (g *DepGraph) Equal(other *DepGraph) bool {
	if len(g.entries) != len(other.entries) {
		return false
	}
	for i := range g.entries {
		if g.entries[i].feeRate != other.entries[i].feeRate {
			return false
		}
		if !g.entries[i].ancestors.Equal(other.entries[i].ancestors) {
			return false
		}
		if !g.entries[i].descendants.Equal(other.entries[i].descendants) {
			return false
		}
	}
	return true
}
