package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	errNoHeaderEnd   = errors.New("missing end of header marker")
	errBinaryData    = errors.New("binary data segments are not supported, convert with -format text")
	errTruncatedData = errors.New("vector data is not a whole number of triples")
)

// OVF holds a text OVF field file: the header key/value pairs and the flat
// list of vector components in file order.
type OVF struct {
	Header map[string]string
	Values []float64
}

// Vectors returns the number of vectors in the file.
func (o *OVF) Vectors() int {
	return len(o.Values) / 3
}

// ParseOVF reads a text OVF file. Header lines have the form "# Key: Value"
// and end at "# End: Header"; data lines are whitespace separated floats up
// to "# End: Data".
func ParseOVF(r io.Reader) (*OVF, error) {
	o := OVF{Header: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var headerDone, dataDone bool
	var lineNo int
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			key, value, ok := strings.Cut(strings.TrimLeft(line, "#"), ":")
			if !ok {
				continue
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)

			switch strings.ToLower(key) {
			case "end":
				lv := strings.ToLower(value)
				if lv == "header" {
					headerDone = true
				} else if strings.HasPrefix(lv, "data") {
					dataDone = true
				}
			case "begin":
				lv := strings.ToLower(value)
				if strings.HasPrefix(lv, "data") && !strings.HasSuffix(lv, "text") {
					return nil, errBinaryData
				}
			default:
				if !headerDone {
					o.Header[key] = value
				}
			}
			continue
		}

		if !headerDone || dataDone {
			continue
		}

		for _, f := range strings.Fields(line) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			o.Values = append(o.Values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !headerDone {
		return nil, errNoHeaderEnd
	}
	if len(o.Values)%3 != 0 {
		return nil, errTruncatedData
	}

	return &o, nil
}

// ReadOVF parses the OVF file at path.
func ReadOVF(path string) (*OVF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseOVF(f)
}

// HeaderInt returns an integer header value, such as "xnodes".
func (o *OVF) HeaderInt(key string) (int, bool) {
	v, ok := o.Header[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
