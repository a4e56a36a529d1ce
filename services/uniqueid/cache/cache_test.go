// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	c := openInMemory(t)
	key := Key("fp", ".jsx", []byte("src"))

	_, ok := c.Get(key)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, Entry{Changed: true, Output: []byte("out")}))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, got.Changed)
	assert.Equal(t, []byte("out"), got.Output)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Writes: 1}, c.Stats())
}

func TestCache_Unchanged(t *testing.T) {
	c := openInMemory(t)
	key := Key("fp", ".js", []byte("const a = 1;"))

	require.NoError(t, c.Put(key, Entry{}))
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.False(t, got.Changed)
	assert.Empty(t, got.Output)
}

func TestCache_CorruptValueIsMiss(t *testing.T) {
	c := openInMemory(t)
	key := Key("fp", ".js", []byte("x"))

	require.NoError(t, c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte{9, 9})
	}))
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	base := Key("fp", ".jsx", []byte("src"))
	assert.Equal(t, base, Key("fp", ".JSX", []byte("src")))
	assert.NotEqual(t, base, Key("fp2", ".jsx", []byte("src")))
	assert.NotEqual(t, base, Key("fp", ".tsx", []byte("src")))
	assert.NotEqual(t, base, Key("fp", ".jsx", []byte("src2")))
	assert.Equal(t, keyPrefix, string(base[:len(keyPrefix)]))
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	c, err := Open(cfg)
	require.NoError(t, err)
	key := Key("fp", ".jsx", []byte("src"))
	require.NoError(t, c.Put(key, Entry{Changed: true, Output: []byte("out")}))
	require.NoError(t, c.Close())

	c2, err := Open(cfg)
	require.NoError(t, err)
	defer c2.Close()
	got, ok := c2.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("out"), got.Output)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	_, err := decode(nil)
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = decode([]byte{flagUnchanged, 1})
	assert.ErrorIs(t, err, ErrCorrupt)

	e, err := decode(encode(Entry{Changed: true, Output: []byte("x")}))
	require.NoError(t, err)
	assert.Equal(t, Entry{Changed: true, Output: []byte("x")}, e)
}
