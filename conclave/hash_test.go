// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package conclave

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlake2b(t *testing.T) {
	singleHash := Blake2b([]byte("data"))
	assert.False(t, singleHash.IsZero())

	multiHash := Blake2b([]byte("multi"), []byte("ple"), []byte("data"))
	assert.NotEqual(t, singleHash, multiHash)
}

func TestBlake2bFn(t *testing.T) {
	h := Blake2bFn(func(w io.Writer) {
		w.Write([]byte("custom writer"))
	})

	assert.Equal(t, Blake2b([]byte("custom writer")), h)
}

func TestKeccak256(t *testing.T) {
	singleHash := Keccak256([]byte("data"))
	multiHash := Keccak256([]byte("multi"), []byte("ple"), []byte("data"))
	assert.NotEqual(t, singleHash, multiHash)
}
