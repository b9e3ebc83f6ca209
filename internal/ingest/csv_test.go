package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/rangebar/internal/domain"
)

const sampleCSV = `a,p,q,f,l,T,m
123456789,50000.12345,1.50000000,100,105,1609459200000,False
123456790,50100.67890,2.25000000,106,110,1609459201000,True
123456791,49900.55555,1.75000000,111,115,1609459202000,false
`

func TestCSVReadAll(t *testing.T) {
	trades, err := NewCSVReader().ReadAll(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, trades, 3)

	first := trades[0]
	assert.Equal(t, int64(123456789), first.AggTradeID)
	assert.Equal(t, "50000.12345", first.Price.String())
	assert.Equal(t, "1.5", first.Volume.String())
	assert.Equal(t, int64(100), first.FirstTradeID)
	assert.Equal(t, int64(105), first.LastTradeID)
	assert.Equal(t, int64(1609459200000), first.TimestampMs)
	assert.False(t, first.IsBuyerMaker)

	assert.True(t, trades[1].IsBuyerMaker)
	assert.False(t, trades[2].IsBuyerMaker)
}

func TestCSVStreamStops(t *testing.T) {
	var seen int
	err := NewCSVReader().Stream(strings.NewReader(sampleCSV), func(domain.TradeRecord) error {
		seen++
		if seen == 2 {
			return assert.AnError
		}
		return nil
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, seen)
}

func TestCSVHeaderOrderIndependent(t *testing.T) {
	reordered := `T,a,p,q,m,f,l
1609459200000,1,100.5,2,True,10,12
`
	trades, err := NewCSVReader().ReadAll(strings.NewReader(reordered))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "100.5", trades[0].Price.String())
	assert.True(t, trades[0].IsBuyerMaker)
}

func TestCSVMissingColumn(t *testing.T) {
	_, err := NewCSVReader().ReadAll(strings.NewReader("a,p,q,f,l,T\n1,100,1,1,1,1000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "m"`)
}

func TestCSVBadPriceSurfacesRow(t *testing.T) {
	bad := `a,p,q,f,l,T,m
1,100.5,1,10,12,1000,False
2,not-a-price,1,13,14,1001,False
`
	_, err := NewCSVReader().ReadAll(strings.NewReader(bad))
	require.ErrorIs(t, err, domain.ErrBadDecimal)
	assert.Contains(t, err.Error(), "row 3")
}

func TestCSVBadBoolean(t *testing.T) {
	bad := `a,p,q,f,l,T,m
1,100.5,1,10,12,1000,yes
`
	_, err := NewCSVReader().ReadAll(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boolean")
}
