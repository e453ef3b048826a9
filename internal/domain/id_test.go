package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var r RecipeSummary
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"name":"Pad Thai","favorite":{"id":7}}`), &r))
	require.Equal(t, ID("42"), r.ID)
	require.True(t, r.IsFavorite())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"abc"}`), &r))
	require.Equal(t, ID("abc"), r.ID)

	out, err := json.Marshal(ID("42"))
	require.NoError(t, err)
	require.Equal(t, "42", string(out))

	out, err = json.Marshal(ID("abc"))
	require.NoError(t, err)
	require.Equal(t, `"abc"`, string(out))
}
