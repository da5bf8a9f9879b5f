package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore/internal/dashboard"
	"superstore/internal/dataset/datasettest"
	"superstore/internal/filter"
	"superstore/internal/store"
)

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	s, err := store.Load(context.Background(), datasettest.Orders())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	d, err := dashboard.Build(context.Background(), s, filter.Filter{Regions: []string{"South"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintSummary(&buf, d)
	out := buf.String()

	assert.Contains(t, out, "SuperStore Sales Dashboard")
	assert.Contains(t, out, "2014-06-09 to 2017-01-03")
	assert.Contains(t, out, "regions [South]")
	assert.Contains(t, out, "$1,973.85")
	assert.Contains(t, out, "Furniture")
	assert.Contains(t, out, "1,951.48")
	assert.Contains(t, out, "Segment wise Sales")
	assert.NotContains(t, out, "Technology")
}

func TestPrintSummary_Empty(t *testing.T) {
	color.NoColor = true
	s, err := store.Load(context.Background(), datasettest.Orders())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	d, err := dashboard.Build(context.Background(), s, filter.Filter{Cities: []string{"Nowhere"}})
	require.NoError(t, err)
	// Unknown city is pruned, so the full dataset shows.
	assert.Nil(t, d.Filter.Cities)

	d.Category = nil
	var buf bytes.Buffer
	PrintSummary(&buf, d)
	assert.Contains(t, buf.String(), "no data for this selection")
}
