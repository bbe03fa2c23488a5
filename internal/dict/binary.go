package dict

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Binary layout: magic, uint64 little-endian header length, JSON header, then
// the lexicon records followed by the connection matrix as int16 values.
const (
	binaryMagic   = "VIBRATOGO1"
	binaryVersion = 1
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// maxDecodedBytes caps the decompressed size of a zstd-wrapped dictionary.
var maxDecodedBytes uint64 = 512 << 20

type binaryHeader struct {
	Version    int            `json:"version"`
	Words      int            `json:"words"`
	LexBytes   int            `json:"lex_bytes"`
	NumRight   int            `json:"num_right"`
	NumLeft    int            `json:"num_left"`
	Categories []CharCategory `json:"categories"`
	Ranges     []charRange    `json:"char_ranges"`
	Unknown    []binaryUnk    `json:"unknown"`
}

type binaryUnk struct {
	Category uint8  `json:"category"`
	LeftID   uint16 `json:"left_id"`
	RightID  uint16 `json:"right_id"`
	Cost     int16  `json:"cost"`
	Feature  string `json:"feature"`
}

// Read decodes a dictionary written by WriteTo. A zstd-compressed blob is
// decompressed first.
func Read(data []byte) (*Dictionary, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxDecodedBytes),
		)
		if err != nil {
			return nil, fmt.Errorf("dict: zstd decoder: %w", err)
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrInvalidFormat, err)
		}
		data = raw
	}

	if !bytes.HasPrefix(data, []byte(binaryMagic)) {
		return nil, fmt.Errorf("%w: missing %s magic", ErrInvalidFormat, binaryMagic)
	}
	data = data[len(binaryMagic):]
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: truncated header length", ErrInvalidFormat)
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	data = data[8:]
	if headerLen > uint64(len(data)) {
		return nil, fmt.Errorf("%w: header length %d exceeds %d remaining bytes", ErrInvalidFormat, headerLen, len(data))
	}

	var h binaryHeader
	if err := json.Unmarshal(data[:headerLen], &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidFormat, err)
	}
	data = data[headerLen:]
	if h.Version != binaryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.Version)
	}
	if h.Words <= 0 || h.LexBytes < 0 || h.LexBytes > len(data) {
		return nil, fmt.Errorf("%w: lexicon section (%d words, %d bytes) does not fit", ErrInvalidFormat, h.Words, h.LexBytes)
	}
	if h.NumRight <= 0 || h.NumLeft <= 0 || h.NumRight > 1<<16 || h.NumLeft > 1<<16 {
		return nil, fmt.Errorf("%w: matrix size %dx%d", ErrInvalidFormat, h.NumRight, h.NumLeft)
	}
	if want := h.NumRight * h.NumLeft * 2; len(data)-h.LexBytes != want {
		return nil, fmt.Errorf("%w: matrix section has %d bytes, want %d", ErrInvalidFormat, len(data)-h.LexBytes, want)
	}

	words, err := decodeWords(data[:h.LexBytes], h.Words)
	if err != nil {
		return nil, err
	}
	conn := newConnector(h.NumRight, h.NumLeft)
	matrix := data[h.LexBytes:]
	for i := range conn.costs {
		conn.costs[i] = int16(binary.LittleEndian.Uint16(matrix[i*2:]))
	}

	if len(h.Categories) == 0 || len(h.Categories) > maxCategories {
		return nil, fmt.Errorf("%w: %d character categories", ErrInvalidFormat, len(h.Categories))
	}
	chars, err := newCharProperty(h.Categories, h.Ranges)
	if err != nil {
		return nil, err
	}
	entries := make([]unkEntry, len(h.Unknown))
	for i, u := range h.Unknown {
		entries[i] = unkEntry{
			cat:     u.Category,
			param:   WordParam{LeftID: u.LeftID, RightID: u.RightID, Cost: u.Cost},
			feature: u.Feature,
		}
	}
	unk, err := newUnkHandler(entries, len(h.Categories), chars.defaultID)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{lex: newLexicon(words), conn: conn, chars: chars, unk: unk}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeWords(buf []byte, n int) ([]lexWord, error) {
	r := &sectionReader{buf: buf}
	words := make([]lexWord, 0, min(n, len(buf)/8+1))
	for i := 0; i < n; i++ {
		surface := r.string()
		param := WordParam{LeftID: r.u16(), RightID: r.u16(), Cost: int16(r.u16())}
		feature := r.string()
		if r.err != nil {
			return nil, fmt.Errorf("%w: lexicon record %d: %v", ErrInvalidFormat, i, r.err)
		}
		if surface == "" {
			return nil, fmt.Errorf("%w: lexicon record %d has an empty surface", ErrInvalidFormat, i)
		}
		words = append(words, lexWord{surface: surface, param: param, feature: feature})
	}
	if r.off != len(buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes after lexicon", ErrInvalidFormat, len(buf)-r.off)
	}
	return words, nil
}

var errShortSection = errors.New("section truncated")

type sectionReader struct {
	buf []byte
	off int
	err error
}

func (r *sectionReader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	if len(r.buf)-r.off < 2 {
		r.err = errShortSection
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *sectionReader) string() string {
	if r.err != nil {
		return ""
	}
	n, size := binary.Uvarint(r.buf[r.off:])
	if size <= 0 || n > uint64(len(r.buf)-r.off-size) {
		r.err = errShortSection
		return ""
	}
	r.off += size
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s
}

// WriteTo serialises the dictionary in the binary form accepted by Read.
func (d *Dictionary) WriteTo(w io.Writer) (int64, error) {
	var lex bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	putString := func(s string) {
		n := binary.PutUvarint(tmp[:], uint64(len(s)))
		lex.Write(tmp[:n])
		lex.WriteString(s)
	}
	putU16 := func(v uint16) {
		binary.LittleEndian.PutUint16(tmp[:2], v)
		lex.Write(tmp[:2])
	}
	for _, word := range d.lex.words {
		putString(word.surface)
		putU16(word.param.LeftID)
		putU16(word.param.RightID)
		putU16(uint16(word.param.Cost))
		putString(word.feature)
	}

	h := binaryHeader{
		Version:    binaryVersion,
		Words:      len(d.lex.words),
		LexBytes:   lex.Len(),
		NumRight:   d.conn.numRight,
		NumLeft:    d.conn.numLeft,
		Categories: d.chars.categories,
		Ranges:     d.chars.ranges,
		Unknown:    make([]binaryUnk, len(d.unk.entries)),
	}
	for i, e := range d.unk.entries {
		h.Unknown[i] = binaryUnk{
			Category: e.cat,
			LeftID:   e.param.LeftID,
			RightID:  e.param.RightID,
			Cost:     e.param.Cost,
			Feature:  e.feature,
		}
	}
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return 0, fmt.Errorf("dict: encode header: %w", err)
	}

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	_, _ = io.WriteString(cw, binaryMagic)
	binary.LittleEndian.PutUint64(tmp[:8], uint64(len(headerJSON)))
	_, _ = cw.Write(tmp[:8])
	_, _ = cw.Write(headerJSON)
	_, _ = cw.Write(lex.Bytes())
	for _, c := range d.conn.costs {
		binary.LittleEndian.PutUint16(tmp[:2], uint16(c))
		_, _ = cw.Write(tmp[:2])
	}
	if cw.err != nil {
		return cw.n, fmt.Errorf("dict: write: %w", cw.err)
	}
	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("dict: write: %w", err)
	}
	return cw.n, nil
}

// WriteCompressedTo writes the binary form wrapped in a zstd frame.
func (d *Dictionary) WriteCompressedTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("dict: zstd encoder: %w", err)
	}
	if _, err := d.WriteTo(enc); err != nil {
		_ = enc.Close()
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, fmt.Errorf("dict: zstd close: %w", err)
	}
	return cw.n, nil
}

// countingWriter remembers the first error so callers can check once.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
