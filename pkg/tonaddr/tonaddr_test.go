package tonaddr_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

func TestParse(t *testing.T) {
	raw := "0:" + strings.Repeat("ab", 32)

	addr, err := tonaddr.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, int32(0), addr.Workchain)
	require.Equal(t, raw, addr.String())
	require.False(t, addr.IsZero())

	masterchain, err := tonaddr.Parse("-1:" + strings.Repeat("00", 32))
	require.NoError(t, err)
	require.Equal(t, int32(-1), masterchain.Workchain)
}

func TestFailingParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing_workchain",
			raw:  strings.Repeat("ab", 32),
		},
		{
			name: "bad_workchain",
			raw:  "x:" + strings.Repeat("ab", 32),
		},
		{
			name: "short_account_id",
			raw:  "0:abcdef",
		},
		{
			name: "not_hex",
			raw:  "0:" + strings.Repeat("zz", 32),
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			_, err := tonaddr.Parse(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	addr := tonaddr.MustParse("0:" + strings.Repeat("cd", 32))

	buf, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded tonaddr.Address
	require.NoError(t, json.Unmarshal(buf, &decoded))
	require.Equal(t, addr, decoded)

	// addresses are used as map keys in the jetton price table
	table := map[tonaddr.Address]uint64{addr: 42}
	buf, err = json.Marshal(table)
	require.NoError(t, err)

	var decodedTable map[tonaddr.Address]uint64
	require.NoError(t, json.Unmarshal(buf, &decodedTable))
	require.Equal(t, table, decodedTable)
}
