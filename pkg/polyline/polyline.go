// Package polyline decodes the HERE flexible polyline format used by the HERE routing APIs.
// Coordinates are delta encoded, zig-zag signed and packed into 6 bit url safe characters
// with the precision carried in a header.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/travigo/livetransit/pkg/ctdf"
)

const (
	formatVersion = 1
	alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

var (
	ErrEmpty              = errors.New("polyline is empty")
	ErrInvalidCharacter   = errors.New("invalid polyline character")
	ErrInvalidVersion     = errors.New("unsupported polyline format version")
	ErrTruncated          = errors.New("polyline ends in the middle of a value")
	ErrIncompleteSequence = errors.New("polyline has an incomplete coordinate")
	ErrOverflow           = errors.New("polyline value does not fit in 64 bits")
)

var decodingTable = func() [128]int8 {
	var table [128]int8
	for i := range table {
		table[i] = -1
	}
	for i, char := range alphabet {
		table[char] = int8(i)
	}
	return table
}()

// ThirdDimension identifies what the optional third value of each point holds
type ThirdDimension int

const (
	ThirdDimensionAbsent ThirdDimension = iota
	ThirdDimensionLevel
	ThirdDimensionAltitude
	ThirdDimensionElevation
	thirdDimensionReserved1
	thirdDimensionReserved2
	ThirdDimensionCustom1
	ThirdDimensionCustom2
)

type Header struct {
	Precision         int
	ThirdDimension    ThirdDimension
	ThirdDimPrecision int
}

// Decode returns the lat/lng points of an encoded polyline. Any third dimension is dropped.
func Decode(encoded string) ([]ctdf.LatLng, error) {
	_, points, err := DecodeWithHeader(encoded)
	return points, err
}

func DecodeWithHeader(encoded string) (Header, []ctdf.LatLng, error) {
	if encoded == "" {
		return Header{}, nil, ErrEmpty
	}

	values, err := decodeUnsignedValues(encoded)
	if err != nil {
		return Header{}, nil, err
	}

	if len(values) < 2 {
		return Header{}, nil, ErrTruncated
	}
	if values[0] != formatVersion {
		return Header{}, nil, fmt.Errorf("%w: %d", ErrInvalidVersion, values[0])
	}

	header := Header{
		Precision:         int(values[1] & 15),
		ThirdDimension:    ThirdDimension((values[1] >> 4) & 7),
		ThirdDimPrecision: int((values[1] >> 7) & 15),
	}

	stride := 2
	if header.ThirdDimension != ThirdDimensionAbsent {
		stride = 3
	}

	body := values[2:]
	if len(body)%stride != 0 {
		return header, nil, ErrIncompleteSequence
	}

	factor := math.Pow10(header.Precision)
	points := make([]ctdf.LatLng, 0, len(body)/stride)

	var lastLat, lastLng int64
	for i := 0; i < len(body); i += stride {
		lastLat += toSigned(body[i])
		lastLng += toSigned(body[i+1])

		points = append(points, ctdf.LatLng{
			Lat: float64(lastLat) / factor,
			Lng: float64(lastLng) / factor,
		})
	}

	return header, points, nil
}

// Encode produces a two dimensional polyline at the given precision
func Encode(points []ctdf.LatLng, precision int) string {
	var encoded strings.Builder

	encodeUnsigned(&encoded, formatVersion)
	encodeUnsigned(&encoded, uint64(precision&15))

	factor := math.Pow10(precision)

	var lastLat, lastLng int64
	for _, point := range points {
		lat := int64(math.Round(point.Lat * factor))
		lng := int64(math.Round(point.Lng * factor))

		encodeSigned(&encoded, lat-lastLat)
		encodeSigned(&encoded, lng-lastLng)

		lastLat = lat
		lastLng = lng
	}

	return encoded.String()
}

func decodeUnsignedValues(encoded string) ([]uint64, error) {
	var values []uint64
	var current uint64
	var shift uint
	pending := false

	for i := 0; i < len(encoded); i++ {
		char := encoded[i]
		if char >= 128 || decodingTable[char] < 0 {
			return nil, fmt.Errorf("%w %q at position %d", ErrInvalidCharacter, char, i)
		}
		value := uint64(decodingTable[char])
		chunk := value & 0x1F

		// The 13th chunk starts at bit 60 and may only carry 4 bits
		if shift >= 64 || (shift > 59 && chunk>>(64-shift) != 0) {
			return nil, fmt.Errorf("%w at position %d", ErrOverflow, i)
		}

		current |= chunk << shift
		if value&0x20 != 0 {
			shift += 5
			pending = true
			continue
		}

		values = append(values, current)
		current = 0
		shift = 0
		pending = false
	}

	if pending {
		return nil, ErrTruncated
	}

	return values, nil
}

func toSigned(value uint64) int64 {
	if value&1 != 0 {
		return ^int64(value >> 1)
	}

	return int64(value >> 1)
}

func encodeSigned(builder *strings.Builder, value int64) {
	shifted := uint64(value) << 1
	if value < 0 {
		shifted = ^shifted
	}

	encodeUnsigned(builder, shifted)
}

func encodeUnsigned(builder *strings.Builder, value uint64) {
	for value > 0x1F {
		builder.WriteByte(alphabet[(value&0x1F)|0x20])
		value >>= 5
	}

	builder.WriteByte(alphabet[value])
}
