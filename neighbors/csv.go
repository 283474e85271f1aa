package neighbors

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ReadPointsCSV parses one point per line in x,y,z form. Blank lines are skipped.
func ReadPointsCSV(r io.Reader) ([]Point3D, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var points []Point3D
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return points, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading points")
		}

		line, _ := reader.FieldPos(0)

		var coords [3]float32
		for i, field := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d, field %d", line, i+1)
			}
			coords[i] = float32(value)
		}

		points = append(points, Point3D{X: coords[0], Y: coords[1], Z: coords[2]})
	}
}

// LoadPointsFile reads a CSV file of points
func LoadPointsFile(path string) ([]Point3D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	points, err := ReadPointsCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	return points, nil
}
