package pagination

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Boundary(t *testing.T) {
	// total 25, limit 10
	first := Derive(Request{Page: 1, Limit: 10}, 25)
	assert.True(t, first.HasMore)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 2, *first.NextPage)

	second := Derive(Request{Page: 2, Limit: 10}, 25)
	assert.True(t, second.HasMore)
	assert.Equal(t, 3, *second.NextPage)

	third := Derive(Request{Page: 3, Limit: 10}, 25)
	assert.Equal(t, 20, Request{Page: 3, Limit: 10}.Offset())
	assert.False(t, third.HasMore)
	assert.Nil(t, third.NextPage)
}

func TestDerive_ExactMultipleAndEmpty(t *testing.T) {
	assert.False(t, Derive(Request{Page: 2, Limit: 10}, 20).HasMore)
	assert.False(t, Derive(Request{Page: 1, Limit: 10}, 0).HasMore)
	assert.False(t, Derive(Request{Page: 9, Limit: 10}, 25).HasMore)
}

func TestParse(t *testing.T) {
	r, err := Parse("", "", 10)
	require.NoError(t, err)
	assert.Equal(t, Request{Page: 1, Limit: 10}, r)

	r, err = Parse("3", "2", 10)
	require.NoError(t, err)
	assert.Equal(t, Request{Page: 3, Limit: 2}, r)

	for _, bad := range [][2]string{{"0", "10"}, {"x", "10"}, {"1", "0"}, {"1", "101"}, {"1", "ten"}} {
		_, err := Parse(bad[0], bad[1], 10)
		assert.Error(t, err, bad)
	}
}

func TestNewPage_EmptyEncodesAsSlice(t *testing.T) {
	p := NewPage[int](nil, Meta{})
	assert.NotNil(t, p.Items)
	assert.Len(t, p.Items, 0)
	assert.False(t, p.HasMore)
	assert.Nil(t, p.NextPage)
}

func TestValidate_HugePage(t *testing.T) {
	assert.NoError(t, Request{Page: MaxPage, Limit: MaxLimit}.Validate())
	assert.Error(t, Request{Page: MaxPage + 1, Limit: 1}.Validate())
	assert.Error(t, Request{Page: math.MaxInt64/10 + 2, Limit: 10}.Validate())

	last := Request{Page: MaxPage, Limit: MaxLimit}
	assert.Positive(t, last.Offset())
	assert.False(t, Derive(last, 25).HasMore)

	_, err := Parse(strconv.Itoa(math.MaxInt64/10+2), "10", 10)
	assert.Error(t, err)
	_, err = Parse("99999999999999999999999", "10", 10)
	assert.Error(t, err)
}
