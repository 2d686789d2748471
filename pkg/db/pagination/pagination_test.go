package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID        string
	CreatedAt string
}

func cursorFor(r *row) string {
	token, _ := EncodeCursor(Cursor{ID: r.ID, CreatedAt: r.CreatedAt})
	return token
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2025-06-01T10:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2025-06-01T10:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64%%%")
	assert.Error(t, err)
}

func TestBuildCursorPageInfoTrimsProbeRow(t *testing.T) {
	rows := []*row{
		{ID: "3", CreatedAt: "2025-06-03T00:00:00Z"},
		{ID: "2", CreatedAt: "2025-06-02T00:00:00Z"},
		{ID: "1", CreatedAt: "2025-06-01T00:00:00Z"},
	}

	data, info := BuildCursorPageInfo(rows, 2, cursorFor)
	require.Len(t, data, 2)
	assert.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", cursor.ID)
}

func TestBuildCursorPageInfoLastPage(t *testing.T) {
	rows := []*row{
		{ID: "1", CreatedAt: "2025-06-01T00:00:00Z"},
	}

	data, info := BuildCursorPageInfo(rows, 2, cursorFor)
	require.Len(t, data, 1)
	assert.False(t, info.HasMore)
}

func TestBuildCursorPageInfoEmpty(t *testing.T) {
	data, info := BuildCursorPageInfo([]*row{}, 2, cursorFor)
	assert.Empty(t, data)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
