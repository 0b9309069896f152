package trajectory

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNPY is returned for .npy input this package cannot decode.
var ErrNPY = errors.New("trajectory: unsupported .npy data")

var npyMagic = []byte("\x93NUMPY")

// LoadNPY reads a .npy file.
func LoadNPY(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadNPY(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// SaveNPY writes t to path as a version 1.0 little-endian int64 array.
func SaveNPY(path string, t *Tensor) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WriteNPY(w, t); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadNPY decodes signed or unsigned integer arrays of any rank, either
// byte order and either memory order. Values are widened to int64.
func ReadNPY(r io.Reader) (*Tensor, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, fmt.Errorf("%w: reading preamble: %v", ErrNPY, err)
	}
	if !bytes.Equal(pre[:6], npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrNPY)
	}

	var headerLen int
	switch major := pre[6]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: header length: %v", ErrNPY, err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: header length: %v", ErrNPY, err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("%w: format version %d.%d", ErrNPY, major, pre[7])
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNPY, err)
	}
	h, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}

	count, err := Elements(h.shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNPY, err)
	}
	// Grow with the data actually present; the header alone is not trusted
	// to size the buffer.
	need := int64(count) * int64(h.size)
	raw, err := io.ReadAll(io.LimitReader(r, need))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %d values: %v", ErrNPY, count, err)
	}
	if int64(len(raw)) < need {
		return nil, fmt.Errorf("%w: data section holds %d of %d bytes", ErrNPY, len(raw), need)
	}

	data := make([]int64, count)
	for i := range data {
		v, err := h.decode(raw[i*h.size : (i+1)*h.size])
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	if h.fortran {
		data = fortranToC(data, h.shape)
	}
	return New(h.shape, data)
}

// WriteNPY encodes t as a version 1.0 '<i8' C-order array.
func WriteNPY(w io.Writer, t *Tensor) error {
	dims := make([]string, len(t.shape))
	for i, d := range t.shape {
		dims[i] = strconv.Itoa(d)
	}
	shape := strings.Join(dims, ", ")
	if len(dims) == 1 {
		shape += ","
	}
	header := fmt.Sprintf("{'descr': '<i8', 'fortran_order': False, 'shape': (%s), }", shape)

	// Pad so the data starts on a 64-byte boundary; the header ends in '\n'.
	total := len(npyMagic) + 2 + 2 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"
	if len(header) > math.MaxUint16 {
		return fmt.Errorf("%w: header too long for format 1.0", ErrNPY)
	}

	if _, err := w.Write(npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, t.data)
}

type npyHeader struct {
	order   binary.ByteOrder
	signed  bool
	size    int
	fortran bool
	shape   []int
}

func parseHeader(s string) (npyHeader, error) {
	var h npyHeader

	descr, err := headerValue(s, "descr")
	if err != nil {
		return h, err
	}
	descr = strings.Trim(descr, `'"`)
	if len(descr) < 3 {
		return h, fmt.Errorf("%w: dtype %q", ErrNPY, descr)
	}
	switch descr[0] {
	case '<', '|', '=':
		h.order = binary.LittleEndian
	case '>':
		h.order = binary.BigEndian
	default:
		return h, fmt.Errorf("%w: dtype %q", ErrNPY, descr)
	}
	switch descr[1] {
	case 'i':
		h.signed = true
	case 'u':
		h.signed = false
	default:
		return h, fmt.Errorf("%w: dtype %q is not an integer type", ErrNPY, descr)
	}
	h.size, err = strconv.Atoi(descr[2:])
	if err != nil || (h.size != 1 && h.size != 2 && h.size != 4 && h.size != 8) {
		return h, fmt.Errorf("%w: dtype %q", ErrNPY, descr)
	}

	fortran, err := headerValue(s, "fortran_order")
	if err != nil {
		return h, err
	}
	switch fortran {
	case "True":
		h.fortran = true
	case "False":
	default:
		return h, fmt.Errorf("%w: fortran_order %q", ErrNPY, fortran)
	}

	shape, err := headerValue(s, "shape")
	if err != nil {
		return h, err
	}
	shape = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(shape, "("), ")"))
	h.shape = []int{}
	for _, part := range strings.Split(shape, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || d < 0 {
			return h, fmt.Errorf("%w: shape %q", ErrNPY, shape)
		}
		h.shape = append(h.shape, d)
	}
	return h, nil
}

// headerValue extracts the raw value of key from the header's dict literal.
func headerValue(s, key string) (string, error) {
	idx := strings.Index(s, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("%w: header missing %q", ErrNPY, key)
	}
	rest := s[idx+len(key)+2:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("%w: header missing value for %q", ErrNPY, key)
	}
	rest = strings.TrimSpace(rest[colon+1:])
	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated shape", ErrNPY)
		}
		return rest[:end+1], nil
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated value for %q", ErrNPY, key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

func (h npyHeader) decode(b []byte) (int64, error) {
	switch h.size {
	case 1:
		if h.signed {
			return int64(int8(b[0])), nil
		}
		return int64(b[0]), nil
	case 2:
		v := h.order.Uint16(b)
		if h.signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	case 4:
		v := h.order.Uint32(b)
		if h.signed {
			return int64(int32(v)), nil
		}
		return int64(v), nil
	default:
		v := h.order.Uint64(b)
		if !h.signed && v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: value %d overflows int64", ErrNPY, v)
		}
		return int64(v), nil
	}
}

// fortranToC reorders column-major data into row-major order.
func fortranToC(data []int64, shape []int) []int64 {
	out := make([]int64, len(data))
	idx := make([]int, len(shape))
	for c := range out {
		f, stride := 0, 1
		for k := range shape {
			f += idx[k] * stride
			stride *= shape[k]
		}
		out[c] = data[f]
		for k := len(shape) - 1; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
	}
	return out
}
