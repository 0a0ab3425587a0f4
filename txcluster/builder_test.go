// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txcluster

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// testTxCounter provides unique pkScripts so every generated transaction has
// a distinct hash.
var testTxCounter uint64

// createTestTx creates a transaction spending the given outpoints with
// numOutputs outputs. The embedded counter guarantees a unique hash.
func createTestTx(inputs []wire.OutPoint, numOutputs int) *btcutil.Tx {
	tx := wire.NewMsgTx(wire.TxVersion)

	for _, input := range inputs {
		tx.AddTxIn(wire.NewTxIn(&input, nil, nil))
	}

	for i := 0; i < numOutputs; i++ {
		testTxCounter++
		pkScript := make([]byte, 8)
		binary.BigEndian.PutUint64(pkScript, testTxCounter)
		tx.AddTxOut(wire.NewTxOut(100000, pkScript))
	}

	return btcutil.NewTx(tx)
}

// outpoint returns the n'th outpoint of the given transaction.
func outpoint(tx *btcutil.Tx, n uint32) wire.OutPoint {
	return wire.OutPoint{Hash: *tx.Hash(), Index: n}
}

// feesFor assigns an arbitrary distinct fee to every transaction.
func feesFor(txs ...*btcutil.Tx) map[chainhash.Hash]btcutil.Amount {
	fees := make(map[chainhash.Hash]btcutil.Amount, len(txs))
	for i, tx := range txs {
		fees[*tx.Hash()] = btcutil.Amount((i + 1) * 1000)
	}
	return fees
}

func TestBuildChain(t *testing.T) {
	t.Parallel()

	txA := createTestTx(nil, 1)
	txB := createTestTx([]wire.OutPoint{outpoint(txA, 0)}, 1)
	txC := createTestTx([]wire.OutPoint{outpoint(txB, 0)}, 1)
	txs := []*btcutil.Tx{txA, txB, txC}

	g, err := Build(txs, feesFor(txs...))
	require.NoError(t, err)
	require.EqualValues(t, 3, g.DepGraph.TxCount())
	require.True(t, g.DepGraph.IsAcyclic())

	a, ok := g.Index(*txA.Hash())
	require.True(t, ok)
	b, ok := g.Index(*txB.Hash())
	require.True(t, ok)
	c, ok := g.Index(*txC.Hash())
	require.True(t, ok)

	require.True(t, g.DepGraph.Descendants(a).Contains(c))
	require.True(t, g.DepGraph.Ancestors(c).Contains(a))
	require.Equal(t, []uint32{b}, g.DepGraph.ReducedParents(c).Slice())
	require.Equal(t, btcutil.Amount(1000), g.DepGraph.FeeRate(a).Fee)
	require.EqualValues(t, txA.MsgTx().SerializeSize(),
		g.DepGraph.FeeRate(a).Size)
}

// TestBuildOutOfOrderInput feeds a child before its parents and checks that
// the topological sort still produces a valid graph.
func TestBuildOutOfOrderInput(t *testing.T) {
	t.Parallel()

	txA := createTestTx(nil, 2)
	txB := createTestTx([]wire.OutPoint{outpoint(txA, 0)}, 1)
	txC := createTestTx([]wire.OutPoint{outpoint(txA, 1)}, 1)
	txD := createTestTx([]wire.OutPoint{
		outpoint(txB, 0), outpoint(txC, 0),
	}, 1)

	// Children first.
	txs := []*btcutil.Tx{txD, txC, txB, txA}

	g, err := Build(txs, feesFor(txs...))
	require.NoError(t, err)
	require.True(t, g.DepGraph.IsAcyclic())

	a, _ := g.Index(*txA.Hash())
	b, _ := g.Index(*txB.Hash())
	c, _ := g.Index(*txC.Hash())
	d, _ := g.Index(*txD.Hash())

	// Parents must precede children in the assigned order.
	require.Less(t, a, b)
	require.Less(t, a, c)
	require.Less(t, b, d)
	require.Less(t, c, d)

	// The diamond closure: a is an ancestor of d through both b and c,
	// and is pruned from d's reduced parents.
	require.Equal(t, 4, g.DepGraph.Ancestors(d).Count())
	reduced := g.DepGraph.ReducedParents(d)
	require.Equal(t, 2, reduced.Count())
	require.True(t, reduced.Contains(b))
	require.True(t, reduced.Contains(c))
}

// TestBuildExternalInputsIgnored checks that inputs referencing transactions
// outside the cluster create no edges.
func TestBuildExternalInputsIgnored(t *testing.T) {
	t.Parallel()

	external := createTestTx(nil, 1)
	txA := createTestTx([]wire.OutPoint{outpoint(external, 0)}, 1)
	txB := createTestTx([]wire.OutPoint{outpoint(txA, 0)}, 1)
	txs := []*btcutil.Tx{txA, txB}

	g, err := Build(txs, feesFor(txs...))
	require.NoError(t, err)

	a, _ := g.Index(*txA.Hash())
	require.True(t, g.DepGraph.ReducedParents(a).IsEmpty())

	_, ok := g.Index(*external.Hash())
	require.False(t, ok)
}

// TestBuildDuplicateParentSpend checks that a child spending two outputs of
// the same parent yields a single dependency.
func TestBuildDuplicateParentSpend(t *testing.T) {
	t.Parallel()

	txA := createTestTx(nil, 2)
	txB := createTestTx([]wire.OutPoint{
		outpoint(txA, 0), outpoint(txA, 1),
	}, 1)
	txs := []*btcutil.Tx{txA, txB}

	g, err := Build(txs, feesFor(txs...))
	require.NoError(t, err)

	a, _ := g.Index(*txA.Hash())
	b, _ := g.Index(*txB.Hash())
	require.Equal(t, []uint32{a}, g.DepGraph.ReducedParents(b).Slice())
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	txA := createTestTx(nil, 1)
	txB := createTestTx([]wire.OutPoint{outpoint(txA, 0)}, 1)

	_, err := Build(
		[]*btcutil.Tx{txA, txA}, feesFor(txA),
	)
	require.ErrorIs(t, err, ErrDuplicateTx)

	_, err = Build([]*btcutil.Tx{txA, txB}, feesFor(txA))
	require.ErrorIs(t, err, ErrMissingFee)
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	g, err := Build(nil, nil)
	require.NoError(t, err)
	require.EqualValues(t, 0, g.DepGraph.TxCount())
	require.Empty(t, g.TxHashes)
}
