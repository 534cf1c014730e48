package ephem

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Record is one computed ephemeris line.
type Record struct {
	Request Request
	Result  Result
}

// ExportConfig configures the exporting of the ephemeris.
type ExportConfig struct {
	Filename  string
	OutputDir string
	AsCSV     bool
	AsJSON    bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.AsJSON
}

func (c ExportConfig) path(ext string) string {
	name := c.Filename
	if c.Timestamp {
		t := time.Now()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "ephem-"+name+"."+ext)
}

// csvHeader returns the column names of an output kind.
func csvHeader(kind OutputKind) []string {
	var cols [3]string
	switch kind {
	case Ecliptical:
		cols = [3]string{"lambda", "beta", "delta"}
	case Equatorial:
		cols = [3]string{"alpha", "delta_dec", "delta"}
	case Horizontal:
		cols = [3]string{"azimuth", "altitude", "delta"}
	case Galactic:
		cols = [3]string{"l", "b", "delta"}
	case Elongation:
		cols = [3]string{"elongation", "phase", "magnitude"}
	}
	return []string{"jde", "utc", "target", "observer", "equinox", cols[0], cols[1], cols[2],
		"sigma1", "sigma2", "sigma3", "elongation", "phase", "magnitude", "light_time", "iterations", "converged"}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// csvRecord formats a record. Angles are in degrees, except the cartesian outputs.
func csvRecord(r Record) []string {
	v := r.Result.Vector
	vals := v.V
	σ := v.Sigma()
	angles := v.Polar && r.Request.Output != Elongation
	if angles {
		vals[0], vals[1] = Rad2deg(vals[0]), vals[1]/deg2rad
		σ[0], σ[1] = σ[0]/deg2rad, σ[1]/deg2rad
	} else if r.Request.Output == Elongation {
		vals[0], vals[1] = vals[0]/deg2rad, vals[1]/deg2rad
	}
	utc := julian.JDToTime(r.Result.UT)
	row := []string{
		ftoa(r.Result.Epoch),
		utc.UTC().Format("2006-01-02 15:04:05"),
		BodyName(r.Request.Target),
		BodyName(r.Request.Observer),
		ftoa(r.Result.Equinox),
		ftoa(vals[0]), ftoa(vals[1]), ftoa(vals[2]),
	}
	if v.HasCov() {
		row = append(row, ftoa(σ[0]), ftoa(σ[1]), ftoa(σ[2]))
	} else {
		row = append(row, "", "", "")
	}
	return append(row,
		ftoa(r.Result.Elongation/deg2rad),
		ftoa(r.Result.Phase/deg2rad),
		ftoa(r.Result.Magnitude),
		ftoa(r.Result.LightTime),
		strconv.Itoa(r.Result.Iterations),
		strconv.FormatBool(r.Result.Converged),
	)
}

// jsonRecord is the JSON view of a record.
type jsonRecord struct {
	JDE        float64     `json:"jde"`
	Target     string      `json:"target"`
	Observer   string      `json:"observer"`
	Output     string      `json:"output"`
	Equinox    float64     `json:"equinox"`
	Polar      bool        `json:"polar"`
	Vector     [3]*float64 `json:"vector"`
	Sigma      []float64   `json:"sigma,omitempty"`
	Elongation float64     `json:"elongation"`
	Phase      float64     `json:"phase"`
	Magnitude  *float64    `json:"magnitude"`
	LightTime  float64     `json:"lightTime"`
}

// finite returns nil for NaN, which JSON cannot encode.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toJSONRecord(r Record) jsonRecord {
	j := jsonRecord{
		JDE:        r.Result.Epoch,
		Target:     BodyName(r.Request.Target),
		Observer:   BodyName(r.Request.Observer),
		Output:     r.Request.Output.String(),
		Equinox:    r.Result.Equinox,
		Polar:      r.Result.Vector.Polar,
		Vector:     [3]*float64{finite(r.Result.Vector.V[0]), finite(r.Result.Vector.V[1]), finite(r.Result.Vector.V[2])},
		Elongation: r.Result.Elongation,
		Phase:      r.Result.Phase,
		Magnitude:  finite(r.Result.Magnitude),
		LightTime:  r.Result.LightTime,
	}
	if r.Result.Vector.HasCov() {
		σ := r.Result.Vector.Sigma()
		j.Sigma = σ[:]
	}
	return j
}

// StreamRecords writes the records of the channel until it is closed, and returns the files written.
func StreamRecords(conf ExportConfig, records <-chan Record) ([]string, error) {
	var (
		fCSV    *os.File
		w       *csv.Writer
		jsonOut []jsonRecord
		files   []string
		kind    = OutputKind(255)
	)
	defer func() {
		if fCSV != nil {
			fCSV.Close()
		}
		// Unblock the producer on early returns.
		for range records {
		}
	}()
	for rec := range records {
		if conf.AsCSV {
			if fCSV == nil {
				name := conf.path("csv")
				f, err := os.Create(name)
				if err != nil {
					return files, err
				}
				fCSV = f
				files = append(files, name)
				fmt.Fprintf(f, "# Creation date (UTC): %s\n# Angles are in degrees, distances in AU and light time in days.\n", time.Now().UTC())
				w = csv.NewWriter(f)
			}
			if rec.Request.Output != kind {
				kind = rec.Request.Output
				if err := w.Write(csvHeader(kind)); err != nil {
					return files, err
				}
			}
			if err := w.Write(csvRecord(rec)); err != nil {
				return files, err
			}
		}
		if conf.AsJSON {
			jsonOut = append(jsonOut, toJSONRecord(rec))
		}
	}
	if w != nil {
		w.Flush()
		if err := w.Error(); err != nil {
			return files, err
		}
	}
	if conf.AsJSON {
		name := conf.path("json")
		marsh, err := json.MarshalIndent(jsonOut, "", "  ")
		if err != nil {
			return files, err
		}
		if err := os.WriteFile(name, marsh, 0644); err != nil {
			return files, err
		}
		files = append(files, name)
	}
	return files, nil
}
