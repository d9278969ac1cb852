package pagination

import (
	"net/url"
	"testing"
	"time"

	"PlaceCache/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID        int
	CreatedAt time.Time
}

func itemKey(i item) time.Time { return i.CreatedAt }

// newestFirst returns n items, one second apart, ordered newest first
func newestFirst(n int) []item {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	items := make([]item, n)
	for i := 0; i < n; i++ {
		items[i] = item{ID: i + 1, CreatedAt: base.Add(-time.Duration(i) * time.Second)}
	}
	return items
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestParseRequest_Defaults(t *testing.T) {
	req, err := ParseRequest(url.Values{}, DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, req.Limit)
	assert.Equal(t, 1, req.Page)
	assert.Nil(t, req.Cursor)
	assert.Equal(t, 0, req.Skip())
}

func TestParseRequest_LimitClamping(t *testing.T) {
	tests := []struct {
		name     string
		limit    string
		expected int
	}{
		{"within range", "35", 35},
		{"above max", "500", MaxLimit},
		{"zero", "0", 1},
		{"negative", "-7", 1},
		{"not a number", "ten", DefaultLimit},
		{"exact max", "100", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(url.Values{"limit": {tt.limit}}, DefaultSettings())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Limit)
		})
	}
}

func TestParseRequest_PageAndSkip(t *testing.T) {
	req, err := ParseRequest(url.Values{"limit": {"10"}, "page": {"3"}}, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 20, req.Skip())

	req, err = ParseRequest(url.Values{"page": {"-2"}}, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, req.Page)
}

func TestParseRequest_CursorTakesPrecedence(t *testing.T) {
	cursor := "2024-05-01T09:59:50Z"
	req, err := ParseRequest(url.Values{"cursor": {cursor}, "page": {"4"}, "limit": {"10"}}, DefaultSettings())
	require.NoError(t, err)

	require.NotNil(t, req.Cursor)
	assert.True(t, req.HasCursor())
	assert.Equal(t, 0, req.Skip())
	assert.Equal(t, time.Date(2024, 5, 1, 9, 59, 50, 0, time.UTC), req.Cursor.UTC())
}

func TestParseRequest_InvalidCursor(t *testing.T) {
	_, err := ParseRequest(url.Values{"cursor": {"yesterday"}}, DefaultSettings())
	assert.ErrorIs(t, err, models.ErrInvalidCursor)
}

func TestParseRequest_CustomSettings(t *testing.T) {
	settings := Settings{DefaultLimit: 5, MaxLimit: 50}

	req, err := ParseRequest(url.Values{}, settings)
	require.NoError(t, err)
	assert.Equal(t, 5, req.Limit)

	req, err = ParseRequest(url.Values{"limit": {"80"}}, settings)
	require.NoError(t, err)
	assert.Equal(t, 50, req.Limit)
}

func TestPaginate_CursorWalkOverTwentyFiveItems(t *testing.T) {
	items := newestFirst(25)
	settings := DefaultSettings()

	first := Paginate(items, NewRequest(10, 1, nil, settings), itemKey)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(first.Items))
	assert.True(t, first.Pagination.HasMore)
	require.NotNil(t, first.Pagination.NextCursor)
	assert.Equal(t, EncodeCursor(items[9].CreatedAt), *first.Pagination.NextCursor)
	assert.Equal(t, 10, first.Pagination.Count)
	assert.Equal(t, 10, first.Pagination.Limit)

	cursor, err := DecodeCursor(*first.Pagination.NextCursor)
	require.NoError(t, err)
	second := Paginate(items, NewRequest(10, 1, &cursor, settings), itemKey)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids(second.Items))
	assert.True(t, second.Pagination.HasMore)
	require.NotNil(t, second.Pagination.NextCursor)

	cursor, err = DecodeCursor(*second.Pagination.NextCursor)
	require.NoError(t, err)
	third := Paginate(items, NewRequest(10, 1, &cursor, settings), itemKey)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, ids(third.Items))
	assert.False(t, third.Pagination.HasMore)
	assert.Nil(t, third.Pagination.NextCursor)
	assert.Equal(t, 5, third.Pagination.Count)
}

func TestPaginate_CursorStableUnderHeadInsertion(t *testing.T) {
	items := newestFirst(25)
	first := Paginate(items, NewRequest(10, 1, nil, DefaultSettings()), itemKey)
	cursor, err := DecodeCursor(*first.Pagination.NextCursor)
	require.NoError(t, err)

	// Newer items arrive at the head between the two calls
	newer := []item{
		{ID: 100, CreatedAt: items[0].CreatedAt.Add(2 * time.Second)},
		{ID: 101, CreatedAt: items[0].CreatedAt.Add(time.Second)},
	}
	grown := append(newer, items...)

	second := Paginate(grown, NewRequest(10, 1, &cursor, DefaultSettings()), itemKey)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids(second.Items))
}

func TestPaginate_PageMode(t *testing.T) {
	items := newestFirst(25)
	settings := DefaultSettings()

	page2 := Paginate(items, NewRequest(10, 2, nil, settings), itemKey)
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, ids(page2.Items))
	assert.Equal(t, 2, page2.Pagination.Page)
	assert.True(t, page2.Pagination.HasMore)

	page3 := Paginate(items, NewRequest(10, 3, nil, settings), itemKey)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, ids(page3.Items))
	assert.False(t, page3.Pagination.HasMore)

	beyond := Paginate(items, NewRequest(10, 9, nil, settings), itemKey)
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.False(t, beyond.Pagination.HasMore)
	assert.Equal(t, 0, beyond.Pagination.Count)
}

func TestPaginate_ExactMultipleEndsWithEmptyPage(t *testing.T) {
	items := newestFirst(20)
	settings := DefaultSettings()

	first := Paginate(items, NewRequest(10, 1, nil, settings), itemKey)
	cursor, _ := DecodeCursor(*first.Pagination.NextCursor)
	second := Paginate(items, NewRequest(10, 1, &cursor, settings), itemKey)

	// A full page always reports HasMore, even when it is the last one
	assert.True(t, second.Pagination.HasMore)
	cursor, _ = DecodeCursor(*second.Pagination.NextCursor)
	third := Paginate(items, NewRequest(10, 1, &cursor, settings), itemKey)
	assert.Empty(t, third.Items)
	assert.False(t, third.Pagination.HasMore)
}

func TestPaginate_EmptyInput(t *testing.T) {
	page := Paginate([]item{}, NewRequest(10, 1, nil, DefaultSettings()), itemKey)
	assert.Empty(t, page.Items)
	assert.False(t, page.Pagination.HasMore)
	assert.Nil(t, page.Pagination.NextCursor)
}

func TestNewPage_TruncatesToLimit(t *testing.T) {
	items := newestFirst(7)
	page := NewPage(items, NewRequest(5, 1, nil, DefaultSettings()), itemKey)

	assert.Len(t, page.Items, 5)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, EncodeCursor(items[4].CreatedAt), *page.Pagination.NextCursor)
}

func TestCursorRoundTripKeepsNanoseconds(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))
	decoded, err := DecodeCursor(EncodeCursor(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(decoded))
}
