// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package depgraph

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/btcsuite/clusterdag/feefrac"
)

// maxSerializedTxs bounds the transaction count accepted by Deserialize so a
// malformed or hostile stream cannot trigger absurd allocations. Real
// clusters are bounded far below this by mempool policy.
const maxSerializedTxs = 1 << 16

var (
	// ErrTooManyTransactions is returned by Deserialize when the encoded
	// transaction count exceeds maxSerializedTxs.
	ErrTooManyTransactions = errors.New("serialized graph exceeds " +
		"maximum transaction count")

	// ErrInvalidParent is returned by Deserialize when an encoded parent
	// index is out of range or refers to the transaction itself.
	ErrInvalidParent = errors.New("serialized parent index is invalid")

	// ErrInvalidSize is returned by Deserialize when an encoded
	// transaction size does not fit the feerate size field.
	ErrInvalidSize = errors.New("serialized size is invalid")

	// ErrCyclicGraph is returned when a graph being serialized or
	// deserialized contains a dependency cycle.
	ErrCyclicGraph = errors.New("dependency graph contains a cycle")
)

// serializePver is the protocol version passed to the wire varint routines.
// The varint format is version independent; the value is only a required
// argument.
const serializePver = 0

// Serialize writes a compact, deterministic encoding of the graph to w. Only
// the minimal dependency edges (ReducedParents) are emitted, so two Equal
// graphs always produce identical bytes regardless of how their closures
// were built. The graph must be acyclic.
func (g *DepGraph) Serialize(w io.Writer) error {
	if !g.IsAcyclic() {
		return ErrCyclicGraph
	}

	err := wire.WriteVarInt(w, serializePver, uint64(g.TxCount()))
	if err != nil {
		return fmt.Errorf("failed to write tx count: %w", err)
	}

	for i := ClusterIndex(0); i < g.TxCount(); i++ {
		feeRate := g.FeeRate(i)

		// Fees may be negative, so they are zigzag encoded before the
		// varint.
		err = wire.WriteVarInt(
			w, serializePver, zigzag(int64(feeRate.Fee)),
		)
		if err != nil {
			return fmt.Errorf("failed to write fee of tx %d: %w",
				i, err)
		}
		err = wire.WriteVarInt(w, serializePver, uint64(feeRate.Size))
		if err != nil {
			return fmt.Errorf("failed to write size of tx %d: %w",
				i, err)
		}

		parents := g.ReducedParents(i)
		err = wire.WriteVarInt(
			w, serializePver, uint64(parents.Count()),
		)
		if err != nil {
			return fmt.Errorf("failed to write parent count of "+
				"tx %d: %w", i, err)
		}
		for p := range parents.Members() {
			err = wire.WriteVarInt(w, serializePver, uint64(p))
			if err != nil {
				return fmt.Errorf("failed to write parent of "+
					"tx %d: %w", i, err)
			}
		}
	}

	return nil
}

// Deserialize reads a graph in the format produced by Serialize. The input
// is treated as untrusted: transaction counts, parent indices, and the
// resulting topology are all validated, and a typed error is returned on any
// violation.
func Deserialize(r io.Reader) (*DepGraph, error) {
	count, err := wire.ReadVarInt(r, serializePver)
	if err != nil {
		return nil, fmt.Errorf("failed to read tx count: %w", err)
	}
	if count > maxSerializedTxs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTransactions,
			count, maxSerializedTxs)
	}

	g := New(0)
	type edge struct {
		parent, child ClusterIndex
	}
	var edges []edge

	for i := uint64(0); i < count; i++ {
		rawFee, err := wire.ReadVarInt(r, serializePver)
		if err != nil {
			return nil, fmt.Errorf("failed to read fee of tx "+
				"%d: %w", i, err)
		}
		rawSize, err := wire.ReadVarInt(r, serializePver)
		if err != nil {
			return nil, fmt.Errorf("failed to read size of tx "+
				"%d: %w", i, err)
		}
		if rawSize > math.MaxInt32 {
			return nil, fmt.Errorf("%w: tx %d has size %d",
				ErrInvalidSize, i, rawSize)
		}

		g.AddTransaction(feefrac.FeeFrac{
			Fee:  btcutil.Amount(unzigzag(rawFee)),
			Size: int32(rawSize),
		})

		numParents, err := wire.ReadVarInt(r, serializePver)
		if err != nil {
			return nil, fmt.Errorf("failed to read parent count "+
				"of tx %d: %w", i, err)
		}
		if numParents > count {
			return nil, fmt.Errorf("%w: tx %d lists %d parents",
				ErrInvalidParent, i, numParents)
		}
		for p := uint64(0); p < numParents; p++ {
			parent, err := wire.ReadVarInt(r, serializePver)
			if err != nil {
				return nil, fmt.Errorf("failed to read "+
					"parent of tx %d: %w", i, err)
			}
			if parent >= count || parent == i {
				return nil, fmt.Errorf("%w: tx %d lists "+
					"parent %d", ErrInvalidParent, i,
					parent)
			}
			edges = append(edges, edge{
				parent: ClusterIndex(parent),
				child:  ClusterIndex(i),
			})
		}
	}

	// Dependencies are applied only after all transactions exist because
	// the format permits parents with higher indices than their children.
	for _, e := range edges {
		g.AddDependency(e.parent, e.child)
	}

	if !g.IsAcyclic() {
		return nil, ErrCyclicGraph
	}

	return g, nil
}

// zigzag maps signed values to unsigned ones with small absolute values
// staying small, so negative fees still varint-encode compactly.
func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// unzigzag is the inverse of zigzag.
func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
