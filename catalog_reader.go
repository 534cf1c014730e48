package ephem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCatalog parses an orbit catalog. Each body starts with a header line
//
//	body <id> <arcs> <H> [equinox] <A|Q> [comment]
//
// where the optional equinox is Jyyyy.y, Byyyy.y or DATE (J2000 when omitted) and A or Q selects
// the semimajor axis form or the perihelion form of the arcs. The header is followed by exactly
// <arcs> lines of seven values:
//
//	<epoch> <a|q> <e> <i> <node> <peri> <M|T>
//
// with angles in degrees. Values may be separated by blanks or commas; blank lines and lines starting
// with # are ignored.
func ReadCatalog(r io.Reader) (*OrbitCatalog, error) {
	c := NewOrbitCatalog()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	next := func() ([]string, bool) {
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return strings.Fields(strings.Replace(line, ",", " ", -1)), true
		}
		return nil, false
	}
	for {
		fields, ok := next()
		if !ok {
			break
		}
		if !strings.EqualFold(fields[0], "body") || len(fields) < 5 {
			return nil, fmt.Errorf("line %d: expected a body header, got %q", lineNo, strings.Join(fields, " "))
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: body id: %s", lineNo, err)
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil || count < 0 {
			return nil, fmt.Errorf("line %d: invalid number of arcs %q", lineNo, fields[2])
		}
		H, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: absolute magnitude: %s", lineNo, err)
		}
		info := BodyInfo{AbsMag: H, Equinox: EquinoxJ2000}
		rest := fields[4:]
		if !isDataFormat(rest[0]) {
			if info.Equinox, err = ParseEquinox(rest[0]); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rest = rest[1:]
			if len(rest) == 0 || !isDataFormat(rest[0]) {
				return nil, fmt.Errorf("line %d: missing data format A or Q", lineNo)
			}
		}
		perihelionForm := strings.EqualFold(rest[0], "Q")
		info.Comment = strings.Join(rest[1:], " ")

		arcs := make([]OrbitalArc, 0, count)
		for i := 0; i < count; i++ {
			values, ok := next()
			if !ok {
				return nil, fmt.Errorf("body %d: expected %d arcs, got %d", id, count, i)
			}
			if len(values) != 7 {
				return nil, fmt.Errorf("line %d: expected 7 values, got %d", lineNo, len(values))
			}
			var v [7]float64
			for j, s := range values {
				if v[j], err = strconv.ParseFloat(s, 64); err != nil {
					return nil, fmt.Errorf("line %d: %s", lineNo, err)
				}
			}
			arc, err := NewOrbitalArc(v[0], v[1], v[2], v[3], v[4], v[5], v[6], perihelionForm)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			arcs = append(arcs, arc)
		}
		c.Add(id, info, arcs)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadCatalogFile reads an orbit catalog from a file.
func ReadCatalogFile(path string) (*OrbitCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

func isDataFormat(s string) bool {
	return strings.EqualFold(s, "A") || strings.EqualFold(s, "Q")
}
