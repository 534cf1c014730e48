package ephem

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gonum/floats"
)

func exportRecords(t *testing.T) []Record {
	e := NewEngine()
	var recs []Record
	for _, tc := range []struct {
		target    int
		output    OutputKind
		errorBars bool
	}{
		{Mars, Equatorial, true},
		{Venus, Equatorial, false},
		{Jupiter, Elongation, false},
		{Earth, Ecliptical, false},
	} {
		req := NewRequest(J2000, tc.target)
		req.Output = tc.output
		req.ErrorBars = tc.errorBars
		if tc.target == Earth {
			req.Observer = Mars
		}
		res, err := e.Compute(req)
		if err != nil {
			t.Fatal(err)
		}
		if tc.target == Earth {
			res.Magnitude = math.NaN()
		}
		recs = append(recs, Record{req, res})
	}
	return recs
}

func stream(t *testing.T, conf ExportConfig, recs []Record) []string {
	ch := make(chan Record)
	go func() {
		defer close(ch)
		for _, r := range recs {
			ch <- r
		}
	}()
	files, err := StreamRecords(conf, ch)
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestExportConfig(t *testing.T) {
	if !(ExportConfig{Filename: "x"}).IsUseless() {
		t.Fatal("no output should be useless")
	}
	if (ExportConfig{AsJSON: true}).IsUseless() {
		t.Fatal("JSON output is not useless")
	}
	conf := ExportConfig{Filename: "mars", OutputDir: "out"}
	if p := conf.path("csv"); p != filepath.Join("out", "ephem-mars.csv") {
		t.Fatalf("path %s", p)
	}
	conf.Timestamp = true
	if p := conf.path("json"); !strings.HasPrefix(p, filepath.Join("out", "ephem-mars-")) || !strings.HasSuffix(p, ".json") {
		t.Fatalf("path %s", p)
	}
}

func TestStreamCSV(t *testing.T) {
	recs := exportRecords(t)
	dir := t.TempDir()
	files := stream(t, ExportConfig{Filename: "test", OutputDir: dir, AsCSV: true}, recs)
	if len(files) != 1 || files[0] != filepath.Join(dir, "ephem-test.csv") {
		t.Fatalf("files %v", files)
	}
	f, err := os.Open(files[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comment = '#'
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// A header per change of output kind.
	if len(rows) != 7 {
		t.Fatalf("%d rows", len(rows))
	}
	for _, i := range []int{0, 3, 5} {
		if rows[i][0] != "jde" {
			t.Fatalf("row %d is not a header: %v", i, rows[i])
		}
	}
	if rows[0][5] != "alpha" || rows[3][5] != "elongation" || rows[5][5] != "lambda" {
		t.Fatal("wrong headers")
	}
	mars := rows[1]
	if mars[2] != "Mars" || mars[3] != "Earth" || mars[16] != "true" {
		t.Fatalf("mars row %v", mars)
	}
	α, err := strconv.ParseFloat(mars[5], 64)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualWithinAbs(α, Rad2deg(recs[0].Result.Vector.V[0]), 1e-9) {
		t.Fatalf("α=%f deg", α)
	}
	if mars[8] == "" || rows[2][8] != "" {
		t.Fatal("sigma columns must only be filled with error bars")
	}
	if !strings.HasPrefix(mars[1], "2000-01-01 11:58") {
		t.Fatalf("utc %s", mars[1])
	}
	if rows[6][13] != "NaN" {
		t.Fatalf("missing magnitude written as %s", rows[6][13])
	}
}

func TestStreamJSON(t *testing.T) {
	recs := exportRecords(t)
	dir := t.TempDir()
	files := stream(t, ExportConfig{Filename: "test", OutputDir: dir, AsCSV: true, AsJSON: true}, recs)
	if len(files) != 2 || filepath.Ext(files[1]) != ".json" {
		t.Fatalf("files %v", files)
	}
	data, err := os.ReadFile(files[1])
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(recs) {
		t.Fatalf("%d records", len(out))
	}
	if out[0]["target"] != "Mars" || out[0]["output"] != "equatorial" || out[0]["sigma"] == nil {
		t.Fatalf("mars %v", out[0])
	}
	if _, ok := out[1]["sigma"]; ok {
		t.Fatal("sigma without error bars")
	}
	if out[3]["magnitude"] != nil {
		t.Fatalf("NaN magnitude encoded as %v", out[3]["magnitude"])
	}
	vec := out[2]["vector"].([]interface{})
	if !floats.EqualWithinAbs(vec[0].(float64), recs[2].Result.Elongation, 1e-12) {
		t.Fatalf("elongation %v", vec[0])
	}
}

func TestStreamError(t *testing.T) {
	recs := exportRecords(t)
	// The producer must not block when the export fails.
	ch := make(chan Record)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		for _, r := range recs {
			ch <- r
		}
	}()
	conf := ExportConfig{Filename: "test", OutputDir: filepath.Join(t.TempDir(), "missing"), AsCSV: true}
	if _, err := StreamRecords(conf, ch); err == nil {
		t.Fatal("no error for a missing directory")
	}
	<-done
}
