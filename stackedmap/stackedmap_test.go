// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conclavechain/conclave/stackedmap"
)

func M(a ...interface{}) []interface{} {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []interface{}
	}{
		{func() {}, 0, "", "", "foo", M("bar", true, nil)},
		{func() { sm.Push() }, 1, "foo", "baz", "foo", M("baz", true, nil)},
		{func() { sm.Push() }, 2, "foo", "qux", "foo", M("qux", true, nil)},
		{func() { sm.Pop() }, 1, "", "", "foo", M("baz", true, nil)},
		{func() { sm.Pop() }, 0, "", "", "foo", M("bar", true, nil)},

		{func() { sm.Push(); sm.Push() }, 2, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(sm.Depth(), test.depth)
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(M(sm.Get(test.getKey)), test.getReturn)
		}
	}
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(_ interface{}) (interface{}, bool, error) {
		return nil, false, nil
	})

	kvs := []struct{ k, v string }{
		{"a", "b"},
		{"a", "c"},
		{"d", "e"},
		{"f", "g"},
		{"h", "i"},
	}

	sm.Push()
	for _, kv := range kvs {
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(func(k, v interface{}) bool {
		assert.Equal(k, kvs[i].k)
		assert.Equal(v, kvs[i].v)
		i++
		return true
	})
	assert.Equal(len(kvs), i, "journal traversal should cover all puts")

	// abandoned traversal
	n := 0
	sm.Journal(func(_, _ interface{}) bool {
		n++
		return false
	})
	assert.Equal(1, n)

	sm.Pop()
	_, found, err := sm.Get("a")
	assert.Nil(err)
	assert.False(found)
}
