package memdb_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/pay-theory/mockqueryable/pkg/errors"
	"github.com/pay-theory/mockqueryable/pkg/memdb"
)

func TestCursorRoundTrip(t *testing.T) {
	lastKey := map[string]types.AttributeValue{
		"id":      &types.AttributeValueMemberS{Value: "o2"},
		"total":   &types.AttributeValueMemberN{Value: "25"},
		"raw":     &types.AttributeValueMemberB{Value: []byte{0x01, 0xfe}},
		"active":  &types.AttributeValueMemberBOOL{Value: true},
		"deleted": &types.AttributeValueMemberNULL{Value: true},
	}

	encoded, err := memdb.EncodeCursor(lastKey, "gsi-customer", "desc")
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	cursor, err := memdb.DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "gsi-customer", cursor.IndexName)
	assert.Equal(t, "desc", cursor.SortDirection)

	decoded, err := cursor.ToAttributeValues()
	require.NoError(t, err)
	assert.Equal(t, lastKey, decoded)
}

func TestCursorEmpty(t *testing.T) {
	encoded, err := memdb.EncodeCursor(nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, encoded)

	cursor, err := memdb.DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	values, err := cursor.ToAttributeValues()
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestCursorInvalid(t *testing.T) {
	_, err := memdb.DecodeCursor("bm90IGpzb24=")
	assert.ErrorIs(t, err, qerrors.ErrInvalidCursor)

	cursor := &memdb.Cursor{LastEvaluatedKey: map[string]any{"id": "plain"}}
	_, err = cursor.ToAttributeValues()
	assert.ErrorIs(t, err, qerrors.ErrInvalidCursor)

	_, err = memdb.EncodeCursor(map[string]types.AttributeValue{
		"tags": &types.AttributeValueMemberSS{Value: []string{"a"}},
	}, "", "")
	assert.Error(t, err)
}
