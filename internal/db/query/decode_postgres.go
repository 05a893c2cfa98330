package query

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/quernlabs/quern/internal/jsonb"
)

// decodePostgresValue renders one cell as a display string. raw is nil for
// SQL NULL. Type-specific decoders run first; a generic numeric/string/bool
// chain follows; the last resort is a "<typename>" placeholder.
func decodePostgresValue(tm *pgtype.Map, typeName string, oid uint32, format int16, raw []byte) string {
	if raw == nil {
		return "NULL"
	}
	if s, ok := decodePostgresTyped(tm, typeName, oid, format, raw); ok {
		return s
	}
	if s, ok := decodePostgresGeneric(tm, oid, format, raw); ok {
		return s
	}
	return "<" + strings.ToLower(typeName) + ">"
}

func postgresTypeName(tm *pgtype.Map, oid uint32) string {
	if t, ok := tm.TypeForOID(oid); ok {
		return strings.ToUpper(t.Name)
	}
	return fmt.Sprintf("OID %d", oid)
}

func decodePostgresTyped(tm *pgtype.Map, typeName string, oid uint32, format int16, raw []byte) (string, bool) {
	switch typeName {
	case "JSON", "JSONB":
		var b []byte
		if err := tm.Scan(oid, format, raw, &b); err != nil {
			return "", false
		}
		return jsonb.Pretty(b), true

	case "BYTEA":
		var b []byte
		if err := tm.Scan(oid, format, raw, &b); err != nil {
			return "", false
		}
		return hexTruncated(b), true

	case "TIMESTAMPTZ":
		var ts time.Time
		if err := tm.Scan(oid, format, raw, &ts); err != nil {
			return "", false
		}
		return ts.Format(time.RFC3339), true

	case "TIMESTAMP":
		var ts pgtype.Timestamp
		if err := tm.Scan(oid, format, raw, &ts); err != nil || !ts.Valid {
			return "", false
		}
		return formatNaiveDateTime(ts.Time), true

	case "DATE":
		var d pgtype.Date
		if err := tm.Scan(oid, format, raw, &d); err != nil || !d.Valid {
			return "", false
		}
		switch d.InfinityModifier {
		case pgtype.Infinity:
			return "infinity", true
		case pgtype.NegativeInfinity:
			return "-infinity", true
		}
		return d.Time.Format("2006-01-02"), true

	case "TIME":
		var tv pgtype.Time
		if err := tm.Scan(oid, format, raw, &tv); err != nil || !tv.Valid {
			return "", false
		}
		return formatMicroseconds(tv.Microseconds), true

	case "TIMETZ":
		// No registered codec; binary layout is 8-byte microseconds
		// followed by a 4-byte zone offset, which is dropped.
		if format == 1 && len(raw) == 12 {
			micros := int64(binary.BigEndian.Uint64(raw[:8]))
			return formatMicroseconds(micros), true
		}
		if format == 0 {
			return string(raw), true
		}
		return "", false

	case "UUID":
		var u pgtype.UUID
		if err := tm.Scan(oid, format, raw, &u); err != nil || !u.Valid {
			return "", false
		}
		return uuid.UUID(u.Bytes).String(), true

	case "INT2":
		var v int16
		if err := tm.Scan(oid, format, raw, &v); err != nil {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true

	case "FLOAT4":
		var v float32
		if err := tm.Scan(oid, format, raw, &v); err != nil {
			return "", false
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true

	case "NUMERIC":
		var n pgtype.Numeric
		if err := tm.Scan(oid, format, raw, &n); err != nil || !n.Valid {
			return "", false
		}
		v, err := n.Value()
		if err != nil {
			return "", false
		}
		if s, ok := v.(string); ok {
			return s, true
		}
		return "", false

	case "INET", "CIDR":
		if format == 0 {
			return string(raw), true
		}
		return decodeInet(raw)

	case "MACADDR":
		if format == 0 {
			return string(raw), true
		}
		if len(raw) != 6 {
			return "", false
		}
		return colonHex(raw), true

	case "MACADDR8":
		if format == 0 {
			return string(raw), true
		}
		if len(raw) != 8 {
			return "", false
		}
		return colonHex(raw), true
	}
	return "", false
}

// decodePostgresGeneric tries numeric and boolean scans, then a string
// scan, then a raw text read. Scanning into *string must come after the
// typed scans because any text-format value scans into a string. Custom
// enum and domain types wire-encode as plain UTF-8, so the raw text read
// covers them; values containing NUL bytes are rejected to avoid garbage
// from opaque binary types.
func decodePostgresGeneric(tm *pgtype.Map, oid uint32, format int16, raw []byte) (string, bool) {
	var i64 int64
	if err := tm.Scan(oid, format, raw, &i64); err == nil {
		return strconv.FormatInt(i64, 10), true
	}
	var i32 int32
	if err := tm.Scan(oid, format, raw, &i32); err == nil {
		return strconv.FormatInt(int64(i32), 10), true
	}
	var f64 float64
	if err := tm.Scan(oid, format, raw, &f64); err == nil {
		return strconv.FormatFloat(f64, 'g', -1, 64), true
	}
	var b bool
	if err := tm.Scan(oid, format, raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	var s string
	if err := tm.Scan(oid, format, raw, &s); err == nil && !strings.ContainsRune(s, 0) {
		return s, true
	}

	if format == 0 {
		text := string(raw)
		if !strings.ContainsRune(text, 0) {
			return text, true
		}
	}
	return "", false
}

// decodeInet renders the on-wire inet/cidr layout: family(1) bits(1)
// is_cidr(1) addr_len(1) addr(N), with family 2 = IPv4 and 3 = IPv6. The
// prefix is appended only for cidr values or non-full-width masks.
func decodeInet(raw []byte) (string, bool) {
	if len(raw) < 4 {
		return "", false
	}
	family, bits, isCIDR := raw[0], raw[1], raw[2]
	addrLen := int(raw[3])
	if len(raw) < 4+addrLen {
		return "", false
	}
	addr := raw[4 : 4+addrLen]

	switch {
	case family == 2 && addrLen == 4:
		ip := fmt.Sprintf("%d.%d.%d.%d", addr[0], addr[1], addr[2], addr[3])
		if isCIDR != 0 || bits != 32 {
			return fmt.Sprintf("%s/%d", ip, bits), true
		}
		return ip, true
	case family == 3 && addrLen == 16:
		groups := make([]string, 8)
		for i := 0; i < 8; i++ {
			groups[i] = fmt.Sprintf("%x", binary.BigEndian.Uint16(addr[2*i:]))
		}
		ip := strings.Join(groups, ":")
		if isCIDR != 0 || bits != 128 {
			return fmt.Sprintf("%s/%d", ip, bits), true
		}
		return ip, true
	}
	return "", false
}

func colonHex(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02x", v)
	}
	return strings.Join(parts, ":")
}

// hexTruncated shows at most 32 bytes of binary data as \x-prefixed hex,
// with an ellipsis marking the cut.
func hexTruncated(b []byte) string {
	var sb strings.Builder
	sb.WriteString("\\x")
	n := len(b)
	if n > 32 {
		n = 32
	}
	for _, v := range b[:n] {
		fmt.Fprintf(&sb, "%02x", v)
	}
	if len(b) > 32 {
		sb.WriteString("…")
	}
	return sb.String()
}

func formatNaiveDateTime(t time.Time) string {
	s := t.Format("2006-01-02 15:04:05")
	if ns := t.Nanosecond(); ns != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
	}
	return s
}

func formatMicroseconds(micros int64) string {
	secs := micros / 1_000_000
	frac := micros % 1_000_000
	h := secs / 3600
	m := (secs % 3600) / 60
	sec := secs % 60
	s := fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	if frac != 0 {
		s += "." + strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	}
	return s
}
