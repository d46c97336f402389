package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskField(t *testing.T) {
	attr := MaskField("signature", "deadbeef")
	require.Equal(t, RedactedValue, attr.Value.String())

	attr = MaskField("request_id", "req_a1b2c3d4e5f6")
	require.Equal(t, "req_a1b2c3d4e5f6", attr.Value.String())

	attr = MaskField("signature", "")
	require.Equal(t, "", attr.Value.String())
}

func TestAllowlistStaysTight(t *testing.T) {
	for _, key := range []string{"signature", "wallet_key", "secret", "reservation_code", "floor_price"} {
		require.False(t, IsAllowlisted(key), "key %s must be masked", key)
	}
	require.True(t, IsAllowlisted("Request_ID"))
}
