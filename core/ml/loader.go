package ml

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const commentPrefix = "%"

// Load reads a data set from a whitespace-delimited text file. Each record line holds the
// feature values followed by a ±1 label; blank lines and lines starting with % are skipped.
func Load(path string) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open data set")
	}
	defer f.Close()

	return Read(f, path)
}

// Read parses records from r; name is only used in error messages.
func Read(r io.Reader, name string) (*DataSet, error) {
	ds := &DataSet{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			return nil, &DataFormatError{File: name, Line: lineNo, Err: errors.New("need at least one feature and a label")}
		}

		x := make(Example, len(tokens)-1)
		for i, tok := range tokens[:len(tokens)-1] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &DataFormatError{File: name, Line: lineNo, Token: tok, Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DataFormatError{File: name, Line: lineNo, Token: tok, Err: errors.New("feature must be finite")}
			}
			x[i] = v
		}

		last := tokens[len(tokens)-1]
		v, err := strconv.ParseFloat(last, 64)
		if err != nil {
			return nil, &DataFormatError{File: name, Line: lineNo, Token: last, Err: err}
		}
		y, ok := LabelOf(v)
		if !ok {
			return nil, &DataFormatError{File: name, Line: lineNo, Token: last, Err: errors.New("label must be +1 or -1")}
		}

		if err := ds.Add(x, y); err != nil {
			return nil, &DataFormatError{File: name, Line: lineNo, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}
	return ds, nil
}
