package query

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

const (
	textFormat   = int16(0)
	binaryFormat = int16(1)
)

func TestDecodeNull(t *testing.T) {
	tm := pgtype.NewMap()
	assert.Equal(t, "NULL", decodePostgresValue(tm, "TEXT", pgtype.TextOID, textFormat, nil))
	assert.Equal(t, "NULL", decodePostgresValue(tm, "INT8", pgtype.Int8OID, binaryFormat, nil))
}

func TestDecodeJSONBPretty(t *testing.T) {
	tm := pgtype.NewMap()
	got := decodePostgresValue(tm, "JSONB", pgtype.JSONBOID, textFormat, []byte(`{"a":1,"b":[2,3]}`))
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    2,\n    3\n  ]\n}", got)
}

func TestDecodeBytea(t *testing.T) {
	tm := pgtype.NewMap()
	got := decodePostgresValue(tm, "BYTEA", pgtype.ByteaOID, textFormat, []byte(`\xdeadbeef`))
	assert.Equal(t, `\xdeadbeef`, got)
}

func TestDecodeByteaTruncated(t *testing.T) {
	long := make([]byte, 40)
	for i := range long {
		long[i] = byte(i)
	}
	got := hexTruncated(long)
	assert.True(t, len(got) > 2)
	assert.Contains(t, got, "…")
	// 2 for the \x prefix, 64 hex digits, one ellipsis rune.
	assert.Equal(t, "\\x", got[:2])
	assert.Len(t, []rune(got), 2+64+1)

	short := []byte{0xde, 0xad}
	assert.Equal(t, `\xdead`, hexTruncated(short))
}

func TestDecodeUUID(t *testing.T) {
	tm := pgtype.NewMap()
	got := decodePostgresValue(tm, "UUID", pgtype.UUIDOID, textFormat,
		[]byte("6f1c07c6-3a25-4680-9f6f-1b7b0e2c0a4d"))
	assert.Equal(t, "6f1c07c6-3a25-4680-9f6f-1b7b0e2c0a4d", got)
}

func TestDecodeGenericChain(t *testing.T) {
	tm := pgtype.NewMap()

	assert.Equal(t, "hello",
		decodePostgresValue(tm, "TEXT", pgtype.TextOID, textFormat, []byte("hello")))
	assert.Equal(t, "42",
		decodePostgresValue(tm, "INT8", pgtype.Int8OID, textFormat, []byte("42")))
	assert.Equal(t, "7",
		decodePostgresValue(tm, "INT4", pgtype.Int4OID, textFormat, []byte("7")))
	assert.Equal(t, "3.5",
		decodePostgresValue(tm, "FLOAT8", pgtype.Float8OID, textFormat, []byte("3.5")))
	assert.Equal(t, "true",
		decodePostgresValue(tm, "BOOL", pgtype.BoolOID, textFormat, []byte("t")))
}

func TestDecodeInt2AndFloat4(t *testing.T) {
	tm := pgtype.NewMap()
	assert.Equal(t, "-12",
		decodePostgresValue(tm, "INT2", pgtype.Int2OID, textFormat, []byte("-12")))
	assert.Equal(t, "1.25",
		decodePostgresValue(tm, "FLOAT4", pgtype.Float4OID, textFormat, []byte("1.25")))
}

func TestDecodeUnknownTypeFallsBackToText(t *testing.T) {
	tm := pgtype.NewMap()
	// A custom enum has an OID the type map has never heard of; the value
	// arrives as plain text.
	got := decodePostgresValue(tm, "MOOD", 987654, textFormat, []byte("happy"))
	assert.Equal(t, "happy", got)
}

func TestDecodeUnknownTypeWithNulBytes(t *testing.T) {
	tm := pgtype.NewMap()
	got := decodePostgresValue(tm, "MYSTERY", 987654, textFormat, []byte("ab\x00cd"))
	assert.Equal(t, "<mystery>", got)
}

func TestDecodeInetV4(t *testing.T) {
	// family=2(v4) bits=32 is_cidr=0 len=4 addr
	raw := []byte{2, 32, 0, 4, 192, 168, 0, 1}
	got, ok := decodeInet(raw)
	assert.True(t, ok)
	assert.Equal(t, "192.168.0.1", got)
}

func TestDecodeInetV4WithPrefix(t *testing.T) {
	raw := []byte{2, 24, 0, 4, 10, 0, 0, 5}
	got, ok := decodeInet(raw)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5/24", got)
}

func TestDecodeCidrV4(t *testing.T) {
	// is_cidr forces the suffix even at full width.
	raw := []byte{2, 32, 1, 4, 10, 1, 2, 0}
	got, ok := decodeInet(raw)
	assert.True(t, ok)
	assert.Equal(t, "10.1.2.0/32", got)
}

func TestDecodeInetV6(t *testing.T) {
	raw := append([]byte{3, 128, 0, 16},
		0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01)
	got, ok := decodeInet(raw)
	assert.True(t, ok)
	assert.Equal(t, "2001:db8:0:0:0:0:0:1", got)
}

func TestDecodeInetV6WithPrefix(t *testing.T) {
	raw := append([]byte{3, 64, 0, 16},
		0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	got, ok := decodeInet(raw)
	assert.True(t, ok)
	assert.Equal(t, "2001:db8:0:0:0:0:0:0/64", got)
}

func TestDecodeInetMalformed(t *testing.T) {
	_, ok := decodeInet([]byte{2, 32})
	assert.False(t, ok)

	// addr_len longer than the payload
	_, ok = decodeInet([]byte{2, 32, 0, 4, 1, 2})
	assert.False(t, ok)

	// unknown family
	_, ok = decodeInet([]byte{9, 32, 0, 4, 1, 2, 3, 4})
	assert.False(t, ok)
}

func TestDecodeMacaddr(t *testing.T) {
	tm := pgtype.NewMap()
	raw := []byte{0x08, 0x00, 0x2b, 0x01, 0x02, 0x03}
	got := decodePostgresValue(tm, "MACADDR", pgtype.MacaddrOID, binaryFormat, raw)
	assert.Equal(t, "08:00:2b:01:02:03", got)
}

func TestDecodeMacaddr8(t *testing.T) {
	tm := pgtype.NewMap()
	raw := []byte{0x08, 0x00, 0x2b, 0xff, 0xfe, 0x01, 0x02, 0x03}
	got := decodePostgresValue(tm, "MACADDR8", 774, binaryFormat, raw)
	assert.Equal(t, "08:00:2b:ff:fe:01:02:03", got)
}

func TestFormatMicroseconds(t *testing.T) {
	assert.Equal(t, "00:00:00", formatMicroseconds(0))
	assert.Equal(t, "13:45:30", formatMicroseconds((13*3600+45*60+30)*1_000_000))
	assert.Equal(t, "01:02:03.5", formatMicroseconds((1*3600+2*60+3)*1_000_000+500_000))
}

func TestFormatNaiveDateTime(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)
	assert.Equal(t, "2024-03-05 10:20:30", formatNaiveDateTime(ts))

	withFrac := ts.Add(250 * time.Millisecond)
	assert.Equal(t, "2024-03-05 10:20:30.25", formatNaiveDateTime(withFrac))
}

func TestPostgresTypeName(t *testing.T) {
	tm := pgtype.NewMap()
	assert.Equal(t, "JSONB", postgresTypeName(tm, pgtype.JSONBOID))
	assert.Equal(t, "OID 987654", postgresTypeName(tm, 987654))
}
