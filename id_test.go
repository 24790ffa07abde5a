package jsonrpc

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestID_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{name: "number", id: NewNumberID(42), want: `42`},
		{name: "max uint64", id: NewNumberID(^uint64(0)), want: `18446744073709551615`},
		{name: "string", id: NewStringID("id-7"), want: `"id-7"`},
		{name: "absent", id: ID{}, want: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "number", input: `1`, want: NewNumberID(1)},
		{name: "string", input: `"abc"`, want: NewStringID("abc")},
		{name: "numeric string stays string", input: `"1"`, want: NewStringID("1")},
		{name: "null", input: `null`, want: ID{}},
		{name: "negative", input: `-1`, wantErr: true},
		{name: "fraction", input: `1.5`, wantErr: true},
		{name: "bool", input: `true`, wantErr: true},
		{name: "object", input: `{"a":1}`, wantErr: true},
		{name: "array", input: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if tt.wantErr {
				require.Error(t, err)
				var rpcErr *Error
				require.ErrorAs(t, err, &rpcErr)
				assert.Equal(t, KindSerde, rpcErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_Equality(t *testing.T) {
	assert.Equal(t, NewNumberID(1), NewNumberID(1))
	assert.NotEqual(t, NewNumberID(1), NewStringID("1"))

	seen := map[ID]bool{NewNumberID(1): true, NewStringID("1"): true}
	assert.True(t, seen[NewNumberID(1)])
	assert.True(t, seen[NewStringID("1")])
	assert.False(t, seen[NewNumberID(2)])
}

func TestIDGenerator_StartsAtOneAndSharesSequence(t *testing.T) {
	g := NewIDGenerator()

	assert.Equal(t, NewNumberID(1), g.NextNumber())
	assert.Equal(t, NewStringID("id-2"), g.NextString())
	assert.Equal(t, NewNumberID(3), g.NextNumber())
}

func TestIDGenerator_ConcurrentCallsNeverCollide(t *testing.T) {
	const perFlavor = 500

	g := NewIDGenerator()
	var (
		mu   sync.Mutex
		seen = make(map[uint64]bool, perFlavor*2)
	)
	record := func(n uint64) error {
		mu.Lock()
		defer mu.Unlock()
		if seen[n] {
			t.Errorf("counter value %d observed twice", n)
		}
		seen[n] = true
		return nil
	}

	var eg errgroup.Group
	for i := 0; i < perFlavor; i++ {
		eg.Go(func() error {
			n, ok := g.NextNumber().Number()
			assert.True(t, ok)
			return record(n)
		})
		eg.Go(func() error {
			s, ok := g.NextString().Text()
			assert.True(t, ok)
			n, err := strconv.ParseUint(strings.TrimPrefix(s, "id-"), 10, 64)
			if err != nil {
				return err
			}
			return record(n)
		})
	}
	require.NoError(t, eg.Wait())

	assert.Len(t, seen, perFlavor*2)
	for n := uint64(1); n <= perFlavor*2; n++ {
		assert.True(t, seen[n], "missing counter value %d", n)
	}
}

func TestNextNumber_UsesProcessWideCounter(t *testing.T) {
	first, _ := NextNumber().Number()
	second, _ := NextNumber().Number()
	assert.Greater(t, second, first)
}
