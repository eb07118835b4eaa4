package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineItem_Defaults(t *testing.T) {
	item := NewLineItem(ItemInput{ID: "svg-1", Price: "abc"})

	assert.Equal(t, "svg-1", item.ID)
	assert.Equal(t, DefaultItemName, item.Name)
	assert.Equal(t, 0.0, item.Price)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, DefaultItemType, item.Type)
	assert.Nil(t, item.Thumbnail)
}

func TestNewLineItem_KeepsValues(t *testing.T) {
	item := NewLineItem(ItemInput{ID: "svg-2", Name: "Wave", Price: " 19.90 ", Type: "figma", Thumbnail: "/t/2.png"})

	assert.Equal(t, "Wave", item.Name)
	assert.Equal(t, 19.90, item.Price)
	assert.Equal(t, "figma", item.Type)
	require.NotNil(t, item.Thumbnail)
	assert.Equal(t, "/t/2.png", *item.Thumbnail)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"10":    10,
		"5.555": 5.555,
		"":      0,
		"-3":    0,
		"NaN":   0,
		"Inf":   0,
		"R$ 10": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePrice(in), "input %q", in)
	}
}

func TestCalculateTotals_RoundsSubtotal(t *testing.T) {
	items := []LineItem{
		{ID: "a", Price: 10, Quantity: 2},
		{ID: "b", Price: 5.555, Quantity: 1},
	}

	totals := CalculateTotals(items)
	assert.Equal(t, 25.56, totals.Subtotal)
	assert.Equal(t, 3, totals.ItemCount)
	assert.Equal(t, 2, totals.Items)
}

func TestCalculateTotals_Empty(t *testing.T) {
	totals := CalculateTotals(nil)
	assert.Equal(t, Totals{}, totals)
}

func TestLineItem_UnmarshalLegacyBlob(t *testing.T) {
	blob := `[{"id":"a","name":"A","price":"12.50","type":"svg"},{"id":"b","price":3,"quantity":0,"thumbnail":null}]`

	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(blob), &items))
	require.Len(t, items, 2)

	assert.Equal(t, 12.5, items[0].Price)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 3.0, items[1].Price)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Nil(t, items[1].Thumbnail)
}

func TestLineItem_MarshalShape(t *testing.T) {
	out, err := json.Marshal(NewLineItem(ItemInput{ID: "x", Name: "X", Price: "1"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","name":"X","price":1,"quantity":1,"type":"svg","thumbnail":null}`, string(out))
}

func TestIndexOf(t *testing.T) {
	items := []LineItem{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, IndexOf(items, "b"))
	assert.Equal(t, -1, IndexOf(items, "z"))
}
