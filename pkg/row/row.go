// Package row implements the on-page row codec: a tuple header giving
// each field's start offset, followed by the typed field bytes
// themselves. This has no direct teacher analogue — DaemonDB's
// serialization.go joins fields with a literal "|" separator and never
// records per-field offsets — so the offset-table shape here is
// grounded directly on the page directory's own offset/length slot
// design (pkg/page/slots.go), generalized from "one slot per record in
// a page" to "one offset per field in a row".
package row

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"minidb/pkg/catalog"
	"minidb/pkg/storeerr"
)

const (
	// MaxFields bounds the header's fixed offsets array, matching the
	// catalog's own per-table column limit.
	MaxFields = 16

	headerSize = 2 + MaxFields*2
)

// Encode packs values (one decimal/text string per column, in schema
// order) into the on-page row payload. len(values) must equal
// len(columns).
func Encode(columns []catalog.Column, values []string) ([]byte, error) {
	if len(values) != len(columns) {
		return nil, fmt.Errorf("row: %d values for %d columns: %w",
			len(values), len(columns), storeerr.ErrSchemaMismatch)
	}

	fields := make([][]byte, len(columns))
	for i, col := range columns {
		enc, err := encodeField(col, values[i])
		if err != nil {
			return nil, err
		}
		fields[i] = enc
	}

	offsets := make([]uint16, len(fields))
	cursor := uint16(headerSize)
	for i, f := range fields {
		offsets[i] = cursor
		cursor += uint16(len(f))
	}

	buf := make([]byte, cursor)
	binary.LittleEndian.PutUint16(buf[0:], uint16(len(fields)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(buf[2+i*2:], off)
	}
	for i, f := range fields {
		copy(buf[offsets[i]:], f)
	}
	return buf, nil
}

// Decode unpacks a row payload back into its column-ordered string
// values, using columns to know each field's type.
func Decode(columns []catalog.Column, payload []byte) ([]string, error) {
	if len(payload) < headerSize {
		return nil, fmt.Errorf("row: payload shorter than header: %w", storeerr.ErrCorruption)
	}

	fieldCount := int(binary.LittleEndian.Uint16(payload[0:]))
	if fieldCount != len(columns) {
		return nil, fmt.Errorf("row: field_count %d does not match %d columns: %w",
			fieldCount, len(columns), storeerr.ErrCorruption)
	}

	offsets := make([]uint16, fieldCount)
	for i := 0; i < fieldCount; i++ {
		offsets[i] = binary.LittleEndian.Uint16(payload[2+i*2:])
	}

	out := make([]string, fieldCount)
	for i, col := range columns {
		start := offsets[i]
		end := uint16(len(payload))
		if i+1 < fieldCount {
			end = offsets[i+1]
		}
		if int(start) > len(payload) || int(end) > len(payload) || start > end {
			return nil, fmt.Errorf("row: field %d offset [%d,%d) out of bounds: %w",
				i, start, end, storeerr.ErrCorruption)
		}
		val, err := decodeField(col, payload[start:end])
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func encodeField(col catalog.Column, value string) ([]byte, error) {
	switch col.Type {
	case catalog.ColumnInt:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("row: column %q value %q is not a valid INT: %w",
				col.Name, value, storeerr.ErrInvalidArgument)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(n)))
		return buf, nil
	case catalog.ColumnText:
		if col.Size > 0 && uint16(len(value)) > col.Size {
			return nil, fmt.Errorf("row: column %q value exceeds size %d: %w",
				col.Name, col.Size, storeerr.ErrInvalidArgument)
		}
		buf := make([]byte, 4+len(value))
		binary.LittleEndian.PutUint32(buf, uint32(len(value)))
		copy(buf[4:], value)
		return buf, nil
	default:
		return nil, fmt.Errorf("row: column %q has unknown type: %w", col.Name, storeerr.ErrInvalidArgument)
	}
}

func decodeField(col catalog.Column, raw []byte) (string, error) {
	switch col.Type {
	case catalog.ColumnInt:
		if len(raw) != 4 {
			return "", fmt.Errorf("row: INT field is %d bytes, want 4: %w", len(raw), storeerr.ErrCorruption)
		}
		n := int32(binary.LittleEndian.Uint32(raw))
		return strconv.FormatInt(int64(n), 10), nil
	case catalog.ColumnText:
		if len(raw) < 4 {
			return "", fmt.Errorf("row: TEXT field shorter than length prefix: %w", storeerr.ErrCorruption)
		}
		n := binary.LittleEndian.Uint32(raw)
		if int(4+n) != len(raw) {
			return "", fmt.Errorf("row: TEXT length %d does not match field size %d: %w",
				n, len(raw)-4, storeerr.ErrCorruption)
		}
		return string(raw[4:]), nil
	default:
		return "", fmt.Errorf("row: column %q has unknown type: %w", col.Name, storeerr.ErrInvalidArgument)
	}
}
