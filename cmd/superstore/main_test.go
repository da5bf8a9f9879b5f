package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"superstore/internal/dashboard"
	"superstore/internal/dataset/datasettest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	out, err := run(t, "summary", "--data", data, "--region", "West", "--city", "Los Angeles")
	require.NoError(t, err)
	assert.Contains(t, out, "$921.77")
	assert.Contains(t, out, "Office Supplies")
}

func TestSummary_BadDate(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	_, err := run(t, "summary", "--data", data, "--start", "01/02/2016")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start")
}

func TestImportThenSummaryFromDB(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	db := filepath.Join(t.TempDir(), "superstore.db")

	out, err := run(t, "import", "--data", data, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 8 orders")

	out, err = run(t, "summary", "--db", db, "--start", "2016-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "$1,108.52")
}

func TestImport_NeedsDB(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	_, err := run(t, "import", "--data", data)
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	out := filepath.Join(t.TempDir(), "cat.xlsx")

	_, err := run(t, "export", "--data", data, "--table", "category", "--out", out, "--region", "South,East")
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Category")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Furniture", rows[1][0])
	assert.Equal(t, "1951.48", rows[1][1])
	assert.Equal(t, "Technology", rows[3][0])
}

func TestExport_All(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	out := filepath.Join(t.TempDir(), "all.xlsx")

	_, err := run(t, "export", "--data", data, "--table", "all", "--out", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), len(dashboard.Downloads))
}

func TestExport_UnknownTable(t *testing.T) {
	data := datasettest.WriteXLSX(t, datasettest.Orders())
	_, err := run(t, "export", "--data", data, "--table", "profit")
	require.ErrorIs(t, err, dashboard.ErrUnknownTable)
}
