// Package packet implements the framed header exchanged on every TCP
// data-plane connection.
//
// A DataPacket is a sequence of length-prefixed "key:value" records:
// each record is a little-endian uint32 length followed by that many
// UTF-8 bytes, and the sequence is terminated by a zero length. The
// chunk payload (if any) follows the terminator on the same stream.
package packet

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Well-known header keys.
const (
	KeyMode          = "mode"
	KeyChunkID       = "chunk_id"
	KeyChunkSize     = "chunk_size"
	KeyTicket        = "ticket"
	KeyBytesReceived = "bytes_received"
)

// Transfer modes carried under KeyMode.
const (
	ModeWrite = "Write"
	ModeRead  = "Read"
)

// maxFieldSize bounds a single record so a malformed or hostile peer
// cannot make us allocate unbounded memory.
const maxFieldSize = 64 * 1024

// DataPacket is an ordered-independent set of string fields.
type DataPacket struct {
	fields map[string]string
}

// New returns an empty DataPacket.
func New() *DataPacket {
	return &DataPacket{fields: make(map[string]string)}
}

// Set stores a field.
func (p *DataPacket) Set(key, value string) {
	p.fields[key] = value
}

// SetInt stores an integer field in decimal form.
func (p *DataPacket) SetInt(key string, value int64) {
	p.fields[key] = strconv.FormatInt(value, 10)
}

// Get returns a field value; it errors when the field is absent so
// call sites can surface the missing key by name.
func (p *DataPacket) Get(key string) (string, error) {
	v, ok := p.fields[key]
	if !ok {
		return "", fmt.Errorf("data packet: missing field %q", key)
	}
	return v, nil
}

// GetInt returns a field parsed as a non-negative integer.
func (p *DataPacket) GetInt(key string) (int64, error) {
	raw, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("data packet: field %q is not a valid size: %q", key, raw)
	}
	return n, nil
}

// Decode reads one framed packet from r.
func Decode(r io.Reader) (*DataPacket, error) {
	fields := make(map[string]string)
	var sizeBuf [4]byte
	for {
		if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
			return nil, fmt.Errorf("data packet: reading field length: %w", err)
		}
		fieldSize := binary.LittleEndian.Uint32(sizeBuf[:])
		if fieldSize == 0 {
			break
		}
		if fieldSize > maxFieldSize {
			return nil, fmt.Errorf("data packet: field length %d exceeds limit", fieldSize)
		}
		raw := make([]byte, fieldSize)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("data packet: reading field body: %w", err)
		}
		key, value, ok := strings.Cut(string(raw), ":")
		if !ok {
			return nil, fmt.Errorf("data packet: malformed field %q", raw)
		}
		fields[key] = value
	}
	return &DataPacket{fields: fields}, nil
}

// Encode renders the packet in wire form, terminator included.
func (p *DataPacket) Encode() []byte {
	var buf []byte
	var sizeBuf [4]byte
	for key, value := range p.fields {
		binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(key)+len(value)+1))
		buf = append(buf, sizeBuf[:]...)
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	binary.LittleEndian.PutUint32(sizeBuf[:], 0)
	buf = append(buf, sizeBuf[:]...)
	return buf
}

// WriteTo writes the encoded packet to w.
func (p *DataPacket) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Encode())
	return int64(n), err
}
