package cache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	envelopeVersion byte = 1

	kindPlain   byte = 1
	kindLogical byte = 2
)

var (
	errCorrupt    = errors.New("corrupt cache entry")
	errSchema     = errors.New("cache entry schema mismatch")
	envelopeMagic = [...]byte{'H', 'M', 'D', 'P'}
)

// envelope is the stored form of a non-empty cache entry. An empty stored
// value is the not-found marker and never goes through here.
//
//	magic(4) | ver(1) | kind(1) | schemaLen(1) | schema | expireAt(i64 unix ms, be) | vlen(u32 be) | payload
//
// expireAt is zero for plain entries.
type envelope struct {
	kind     byte
	schema   string
	expireAt time.Time
	payload  []byte
}

func encodeEnvelope(e envelope) ([]byte, error) {
	if len(e.schema) > 255 {
		return nil, fmt.Errorf("cache schema tag %q longer than 255 bytes", e.schema)
	}
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 1 + len(e.schema) + 8 + 4 + len(e.payload))

	buf.Write(envelopeMagic[:])
	buf.WriteByte(envelopeVersion)
	buf.WriteByte(e.kind)
	buf.WriteByte(byte(len(e.schema)))
	buf.WriteString(e.schema)

	var u8 [8]byte
	var u4 [4]byte
	var ms int64
	if !e.expireAt.IsZero() {
		ms = e.expireAt.UnixMilli()
	}
	binary.BigEndian.PutUint64(u8[:], uint64(ms))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.payload)))
	buf.Write(u4[:])
	buf.Write(e.payload)
	return buf.Bytes(), nil
}

// decodeEnvelope parses b and checks it carries the wanted kind and schema.
func decodeEnvelope(b []byte, kind byte, schema string) (envelope, error) {
	const fixed = 4 + 1 + 1 + 1
	if len(b) < fixed || !bytes.Equal(b[:4], envelopeMagic[:]) || b[4] != envelopeVersion {
		return envelope{}, errCorrupt
	}
	if b[5] != kind {
		return envelope{}, errCorrupt
	}
	off := 6
	sl := int(b[off])
	off++
	if off+sl+8+4 > len(b) {
		return envelope{}, errCorrupt
	}
	if string(b[off:off+sl]) != schema {
		return envelope{}, errSchema
	}
	off += sl

	ms := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off {
		return envelope{}, errCorrupt
	}

	e := envelope{kind: kind, schema: schema, payload: b[off : off+vlen]}
	if ms != 0 {
		e.expireAt = time.UnixMilli(ms).UTC()
	}
	return e, nil
}
