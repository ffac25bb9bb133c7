package dataset

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func TestLoad_JSON(t *testing.T) {
	ds, err := Load(context.Background(), "testdata/cities.json", WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, ds.Format())
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, []string{"Pune", "Nagpur", "Nashik", "Pune", "Solapur"}, ds.Cities())

	raw, err := os.ReadFile("testdata/cities.json")
	require.NoError(t, err)
	assert.Equal(t, xxhash.Sum64(raw), ds.Fingerprint())
}

func TestLoad_JSONValueOrder(t *testing.T) {
	ds, err := Load(context.Background(), "testdata/cities.json", WithLogger(quietLogger()))
	require.NoError(t, err)

	t.Run("integer keys ascending", func(t *testing.T) {
		rec, err := ds.Lookup("Nagpur")
		require.NoError(t, err)
		assert.Equal(t, []string{"2019", "2020", "2021"}, rec.Labels)
		assert.Equal(t, []float64{60, 75, 80}, rec.Values)
	})

	t.Run("integer keys before named keys", func(t *testing.T) {
		rec, err := ds.Lookup("Nashik")
		require.NoError(t, err)
		assert.Equal(t, []string{"2020", "latest", "early"}, rec.Labels)
		assert.Equal(t, []float64{10, 12, 5}, rec.Values)
	})
}

func TestParseJSON_DuplicateKey(t *testing.T) {
	records, err := parseJSON([]byte(`[{"City":"A","Data":{"x":1,"y":2,"x":3}}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"x", "y"}, records[0].Labels)
	assert.Equal(t, []float64{3, 2}, records[0].Values)
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an array", `{"City":"A"}`},
		{"truncated", `[{"City":"A","Data":{"2019":1`},
		{"non-numeric value", `[{"City":"A","Data":{"2019":"lots"}}]`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJSON([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	ds, err := Load(context.Background(), "testdata/cities.json", WithLogger(quietLogger()))
	require.NoError(t, err)

	t.Run("first match wins", func(t *testing.T) {
		rec, err := ds.Lookup("Pune")
		require.NoError(t, err)
		assert.Equal(t, []float64{140.5, 152.25, 149, 170}, rec.Values)
	})

	t.Run("unknown city", func(t *testing.T) {
		_, err := ds.Lookup("Mumbai")
		var sel *InvalidSelectionError
		require.ErrorAs(t, err, &sel)
		assert.Equal(t, "Mumbai", sel.City)
		assert.Contains(t, err.Error(), "Mumbai")
	})

	t.Run("empty selection", func(t *testing.T) {
		_, err := ds.Lookup("")
		var sel *InvalidSelectionError
		require.ErrorAs(t, err, &sel)
		assert.Contains(t, err.Error(), "no city selected")
	})

	t.Run("record without values", func(t *testing.T) {
		rec, err := ds.Lookup("Solapur")
		require.NoError(t, err)
		assert.Empty(t, rec.Values)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		rec, err := ds.Lookup("Pune")
		require.NoError(t, err)
		rec.Values[0] = -1

		again, err := ds.Lookup("Pune")
		require.NoError(t, err)
		assert.Equal(t, 140.5, again.Values[0])
	})
}

func TestLoad_CSV(t *testing.T) {
	ds, err := Load(context.Background(), "testdata/cities.csv", WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, ds.Format())
	assert.Equal(t, []string{"Pune", "Nagpur", "Solapur"}, ds.Cities())

	rec, err := ds.Lookup("Nagpur")
	require.NoError(t, err)
	assert.Equal(t, []string{"2019", "2020", "2021"}, rec.Labels)
	assert.Equal(t, []float64{60, 75, 80}, rec.Values)

	rec, err = ds.Lookup("Solapur")
	require.NoError(t, err)
	assert.Empty(t, rec.Values)
}

func TestLoad_CSVBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("City,2019\nPune,abc\n"), 0o600))

	_, err := Load(context.Background(), path, WithLogger(quietLogger()))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "row 2, column 2")
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"City", "2019", "2020", "2021"},
		{"Thane", 30, 45, 50},
		{"Kolhapur", 8, 9.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cities.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := Load(context.Background(), path, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, ds.Format())
	assert.Equal(t, []string{"Thane", "Kolhapur"}, ds.Cities())

	rec, err := ds.Lookup("Kolhapur")
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 9.5}, rec.Values)
}

func TestLoad_HTTP(t *testing.T) {
	raw, err := os.ReadFile("testdata/cities.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static/data.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	ds, err := Load(context.Background(), srv.URL+"/static/data.json",
		WithHTTPClient(srv.Client()), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())

	_, err = Load(context.Background(), srv.URL+"/missing.json",
		WithHTTPClient(srv.Client()), WithLogger(quietLogger()))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "404")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(context.Background(), "testdata/nope.json", WithLogger(quietLogger()))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, "testdata/nope.json", loadErr.Source)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("unknown extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.txt")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
		_, err := Load(context.Background(), path, WithLogger(quietLogger()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown format")
	})

	t.Run("forced format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.txt")
		require.NoError(t, os.WriteFile(path, []byte(`[{"City":"A","Data":{"1":2}}]`), 0o600))
		ds, err := Load(context.Background(), path, WithFormat(FormatJSON), WithLogger(quietLogger()))
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, ds.Cities())
	})

	t.Run("nil client", func(t *testing.T) {
		_, err := Load(context.Background(), "testdata/cities.json", WithHTTPClient(nil))
		require.Error(t, err)
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{".CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"parquet", FormatAuto, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, formatNames[got], got.String())
		})
	}
}

func TestNew(t *testing.T) {
	in := []Record{{Name: "A", Values: []float64{1, 2}}}
	ds := New(in)
	in[0].Values[0] = 99

	rec, err := ds.Lookup("A")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, rec.Values)
	assert.Equal(t, "memory", ds.Source())
	assert.Zero(t, ds.Fingerprint())
}
