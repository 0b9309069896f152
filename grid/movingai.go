package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadMap reads a MovingAI .map file.
func LoadMap(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseMap parses MovingAI map text. With a "type" header the body is
// padded (with obstacles) or truncated to the declared height and width;
// without one the whole input is read as a raw character matrix.
func ParseMap(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return FromRows(nil)
	}
	first := strings.TrimSpace(sc.Text())

	if !strings.HasPrefix(first, "type") {
		rows := []string{strings.TrimRight(first, " \t\r")}
		for sc.Scan() {
			rows = append(rows, strings.TrimRight(sc.Text(), " \t\r"))
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return FromRows(rows)
	}

	height, err := headerInt(sc, "height")
	if err != nil {
		return nil, err
	}
	width, err := headerInt(sc, "width")
	if err != nil {
		return nil, err
	}
	if !sc.Scan() || !strings.HasPrefix(strings.ToLower(strings.TrimSpace(sc.Text())), "map") {
		return nil, fmt.Errorf("%w: expected \"map\" line after header", ErrFormat)
	}

	pad := strings.Repeat("@", width)
	rows := make([]string, 0, height)
	for len(rows) < height && sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if len(line) < width {
			line += pad[:width-len(line)]
		} else if len(line) > width {
			line = line[:width]
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for len(rows) < height {
		rows = append(rows, pad)
	}
	return FromRows(rows)
}

func headerInt(sc *bufio.Scanner, key string) (int, error) {
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: missing %s line", ErrFormat, key)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: bad %s line %q", ErrFormat, key, sc.Text())
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: bad %s value %q", ErrFormat, key, fields[1])
	}
	return v, nil
}
