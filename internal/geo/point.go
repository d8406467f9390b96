// Package geo holds the geographic point type stored in PostGIS and the
// unit helpers used around proximity queries.
package geo

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// SRID is the spatial reference system every stored point is tagged with:
// WGS84 geographic coordinates in degrees.
const SRID = 4326

const (
	wkbPoint     = 1
	ewkbSRIDFlag = 0x20000000
)

// Point is a WGS84 coordinate pair. It implements driver.Valuer and
// sql.Scanner using hex-encoded EWKB, the format PostGIS emits for a
// geometry(Point,4326) column, so gorm can read and write it directly.
//
// Coordinate ranges are not validated: out-of-range values are stored as
// given.
type Point struct {
	Lng float64 `json:"longitude"`
	Lat float64 `json:"latitude"`
}

// GormDataType tells gorm's migrator the column type for this value.
func (Point) GormDataType() string {
	return fmt.Sprintf("geometry(Point,%d)", SRID)
}

// Value encodes the point as hex EWKB: little-endian byte-order marker,
// point type with the SRID flag set, SRID, then X (longitude) and Y
// (latitude) as float64.
func (p Point) Value() (driver.Value, error) {
	buf := make([]byte, 25)
	buf[0] = 1 // little endian
	binary.LittleEndian.PutUint32(buf[1:5], wkbPoint|ewkbSRIDFlag)
	binary.LittleEndian.PutUint32(buf[5:9], SRID)
	binary.LittleEndian.PutUint64(buf[9:17], math.Float64bits(p.Lng))
	binary.LittleEndian.PutUint64(buf[17:25], math.Float64bits(p.Lat))
	return hex.EncodeToString(buf), nil
}

// Scan decodes a hex EWKB point as returned by PostGIS.
func (p *Point) Scan(src any) error {
	var encoded string
	switch v := src.(type) {
	case []byte:
		encoded = string(v)
	case string:
		encoded = v
	case nil:
		return fmt.Errorf("geo: cannot scan NULL into Point")
	default:
		return fmt.Errorf("geo: cannot scan %T into Point", src)
	}

	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("geo: decoding EWKB hex: %w", err)
	}
	if len(raw) < 25 {
		return fmt.Errorf("geo: EWKB too short: %d bytes", len(raw))
	}

	var order binary.ByteOrder
	switch raw[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return fmt.Errorf("geo: invalid EWKB byte order marker %#x", raw[0])
	}

	geomType := order.Uint32(raw[1:5])
	coords := raw[5:]
	if geomType&ewkbSRIDFlag != 0 {
		srid := order.Uint32(raw[5:9])
		if srid != SRID {
			return fmt.Errorf("geo: unexpected SRID %d, want %d", srid, SRID)
		}
		coords = raw[9:]
	}
	if geomType&^uint32(ewkbSRIDFlag) != wkbPoint {
		return fmt.Errorf("geo: unexpected geometry type %#x, want point", geomType)
	}
	if len(coords) < 16 {
		return fmt.Errorf("geo: EWKB point payload too short")
	}

	p.Lng = math.Float64frombits(order.Uint64(coords[0:8]))
	p.Lat = math.Float64frombits(order.Uint64(coords[8:16]))
	return nil
}
