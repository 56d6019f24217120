package dataset_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	input := "\ufeffregion,revenue,notes\n\nnorth,\"1,200\",ok\nsouth,800\n,,\n"
	parsed, err := dataset.Parse("sales.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []string{"region", "revenue", "notes"}, parsed.Headers)
	require.Equal(t, 2, parsed.RowCount)
	require.Equal(t, []string{"south", "800", ""}, parsed.Rows[1])
	require.Contains(t, parsed.Summary, "2 rows, 3 columns")
	require.Contains(t, parsed.Summary, "revenue min=800 max=1200 sum=2000")
	require.NotContains(t, parsed.Summary, "region min")
}

func TestParse_BlankHeadersGetNames(t *testing.T) {
	parsed, err := dataset.Parse("x.csv", strings.NewReader("a,,c\n1,2,3\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "column_2", "c"}, parsed.Headers)
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "item"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "bolts"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 40))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "nuts"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 60))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	parsed, err := dataset.Parse("inventory.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []string{"item", "qty"}, parsed.Headers)
	require.Equal(t, 2, parsed.RowCount)
	require.Contains(t, parsed.Summary, "qty min=40 max=60 sum=100")
}

func TestParse_Errors(t *testing.T) {
	_, err := dataset.Parse("report.docx", strings.NewReader("x"))
	var perr *dataset.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "report.docx", perr.FileName)
	require.ErrorIs(t, err, dataset.ErrUnsupportedFormat)

	_, err = dataset.Parse("empty.csv", strings.NewReader("\n\n"))
	require.ErrorIs(t, err, dataset.ErrMalformed)

	_, err = dataset.Parse("broken.xlsx", strings.NewReader("not a zip"))
	require.ErrorIs(t, err, dataset.ErrMalformed)
}

func TestParse_LargeFileKeepsAllRows(t *testing.T) {
	parsed, err := dataset.Parse("big.csv", strings.NewReader(buildCSV(500)))
	require.NoError(t, err)
	require.Equal(t, 500, parsed.RowCount)
	require.Len(t, parsed.Head(dataset.SampleLimit), dataset.SampleLimit)
	require.Len(t, parsed.Head(-1), 500)
}

func buildCSV(rows int) string {
	var b strings.Builder
	b.WriteString("id,amount\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%d\n", i, i*10)
	}
	return b.String()
}
