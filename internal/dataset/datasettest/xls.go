package datasettest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"superstore/internal/dataset"
)

// XLSDates selects the number format WriteXLS gives the date columns.
type XLSDates int

const (
	// XLSCustomDates uses a user defined yyyy-mm-dd format.
	XLSCustomDates XLSDates = iota
	// XLSBuiltinDates uses Excel's built-in m/d/yyyy format (id 14).
	XLSBuiltinDates
)

// Cell formats written to the XF table, in order.
const (
	xfGeneral = iota
	xfBuiltinDate
	xfCustomDate
)

const customDateFormat = 164

// WriteXLS writes orders to a BIFF8 workbook under t.TempDir and returns its
// path. A "Returns" sheet follows the orders sheet, as in the published file.
func WriteXLS(t testing.TB, orders []dataset.Order, dates XLSDates) string {
	t.Helper()
	dateXF := uint16(xfCustomDate)
	if dates == XLSBuiltinDates {
		dateXF = xfBuiltinDate
	}

	header := make([]any, len(dataset.Columns))
	for i, c := range dataset.Columns {
		header[i] = c
	}
	rows := [][]any{header}
	for _, o := range orders {
		vals := o.Values()
		vals[2] = xlsDate(serial(o.OrderDate))
		vals[3] = xlsDate(serial(o.ShipDate))
		rows = append(rows, vals)
	}
	sheets := [][]byte{
		worksheet(rows, dateXF),
		worksheet([][]any{{"Returned", "Order ID"}, {"Yes", "CA-1"}}, dateXF),
	}

	globals := workbookGlobals([]string{"Orders", "Returns"}, make([]uint32, len(sheets)))
	offsets := make([]uint32, len(sheets))
	pos := uint32(len(globals))
	for i, s := range sheets {
		offsets[i] = pos
		pos += uint32(len(s))
	}
	stream := workbookGlobals([]string{"Orders", "Returns"}, offsets)
	for _, s := range sheets {
		stream = append(stream, s...)
	}

	path := filepath.Join(t.TempDir(), "Superstore.xls")
	if err := os.WriteFile(path, compoundFile(stream), 0644); err != nil {
		t.Fatalf("write xls: %v", err)
	}
	return path
}

// xlsDate marks a serial day number for the date cell format.
type xlsDate float64

type biff struct{ bytes.Buffer }

func (b *biff) record(id uint16, parts ...any) {
	var body bytes.Buffer
	for _, p := range parts {
		_ = binary.Write(&body, binary.LittleEndian, p)
	}
	_ = binary.Write(&b.Buffer, binary.LittleEndian, [2]uint16{id, uint16(body.Len())})
	b.Write(body.Bytes())
}

// unicodeString encodes s as UTF-16 with the given length prefix width.
func unicodeString(s string, wide bool) []byte {
	units := utf16.Encode([]rune(s))
	var b bytes.Buffer
	if wide {
		_ = binary.Write(&b, binary.LittleEndian, uint16(len(units)))
	} else {
		b.WriteByte(byte(len(units)))
	}
	b.WriteByte(0x01)
	_ = binary.Write(&b, binary.LittleEndian, units)
	return b.Bytes()
}

func bof(kind uint16) []uint16 {
	// version, substream type, build, year, history flags, lowest version.
	return []uint16{0x0600, kind, 0x0DBB, 0x07CC, 0, 0, 0x06, 0}
}

func workbookGlobals(names []string, offsets []uint32) []byte {
	var b biff
	b.record(0x0809, bof(0x0005))
	b.record(0x0042, uint16(1200))
	b.record(0x0022, uint16(0))
	b.record(0x041E, uint16(customDateFormat), unicodeString("yyyy-mm-dd", true))
	for _, format := range []uint16{0, 14, customDateFormat} {
		xf := make([]byte, 20)
		binary.LittleEndian.PutUint16(xf[2:], format)
		b.record(0x00E0, xf)
	}
	for i, name := range names {
		b.record(0x0085, offsets[i], uint16(0), unicodeString(name, false))
	}
	b.record(0x000A)
	return b.Bytes()
}

func worksheet(rows [][]any, dateXF uint16) []byte {
	var b biff
	b.record(0x0809, bof(0x0010))
	for r, row := range rows {
		rw := uint16(r)
		b.record(0x0208, rw, uint16(0), uint16(len(row)), uint16(0x00FF), uint16(0), uint16(0), uint32(0x0100))
		for c, v := range row {
			col := uint16(c)
			switch v := v.(type) {
			case string:
				if v != "" {
					b.record(0x0204, rw, col, uint16(xfGeneral), unicodeString(v, true))
				}
			case int:
				b.record(0x027E, rw, col, uint16(xfGeneral), uint32(v)<<2|0x02)
			case xlsDate:
				b.record(0x027E, rw, col, dateXF, uint32(v)<<2|0x02)
			case float64:
				b.record(0x0203, rw, col, uint16(xfGeneral), v)
			}
		}
	}
	b.record(0x000A)
	return b.Bytes()
}

// Compound file constants for version 3 files with 512 byte sectors.
const (
	sectorSize   = 512
	miniCutoff   = 4096
	endOfChain   = 0xFFFFFFFE
	freeSector   = 0xFFFFFFFF
	fatSector    = 0xFFFFFFFD
	noStream     = 0xFFFFFFFF
	dirEntrySize = 128
)

type cfbHeader struct {
	Magic        [8]byte
	CLSID        [16]byte
	MinorVersion uint16
	MajorVersion uint16
	ByteOrder    uint16
	SectorShift  uint16
	MiniShift    uint16
	_            [6]byte
	DirSectors   uint32
	FATSectors   uint32
	FirstDir     uint32
	Transaction  uint32
	MiniCutoff   uint32
	FirstMiniFAT uint32
	MiniFATCount uint32
	FirstDIFAT   uint32
	DIFATSectors uint32
	DIFAT        [109]uint32
}

type cfbDirEntry struct {
	Name     [32]uint16
	NameLen  uint16
	Type     uint8
	Color    uint8
	Left     uint32
	Right    uint32
	Child    uint32
	CLSID    [16]byte
	State    uint32
	Created  uint64
	Modified uint64
	Start    uint32
	Size     uint32
	SizeHigh uint32
}

func dirEntry(name string, kind uint8) cfbDirEntry {
	e := cfbDirEntry{Type: kind, Color: 1, Left: noStream, Right: noStream, Child: noStream}
	units := utf16.Encode([]rune(name))
	copy(e.Name[:], units)
	e.NameLen = uint16(2 * (len(units) + 1))
	return e
}

// compoundFile wraps a "Workbook" stream in an OLE2 container laid out as
// FAT sectors, one directory sector, then the stream.
func compoundFile(stream []byte) []byte {
	if len(stream) < miniCutoff {
		stream = append(stream, make([]byte, miniCutoff-len(stream))...)
	}
	if pad := len(stream) % sectorSize; pad != 0 {
		stream = append(stream, make([]byte, sectorSize-pad)...)
	}
	dataSectors := len(stream) / sectorSize
	perSector := sectorSize / 4
	fatSectors := 1
	for fatSectors*perSector < fatSectors+1+dataSectors {
		fatSectors++
	}
	dirSID := fatSectors
	dataSID := fatSectors + 1

	fat := make([]uint32, fatSectors*perSector)
	for i := range fat {
		fat[i] = freeSector
	}
	for i := 0; i < fatSectors; i++ {
		fat[i] = fatSector
	}
	fat[dirSID] = endOfChain
	for i := 0; i < dataSectors; i++ {
		fat[dataSID+i] = uint32(dataSID + i + 1)
	}
	fat[dataSID+dataSectors-1] = endOfChain

	h := cfbHeader{
		Magic:        [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
		MinorVersion: 0x003E,
		MajorVersion: 3,
		ByteOrder:    0xFFFE,
		SectorShift:  9,
		MiniShift:    6,
		FATSectors:   uint32(fatSectors),
		FirstDir:     uint32(dirSID),
		MiniCutoff:   miniCutoff,
		FirstMiniFAT: endOfChain,
		FirstDIFAT:   endOfChain,
	}
	for i := range h.DIFAT {
		h.DIFAT[i] = freeSector
	}
	for i := 0; i < fatSectors; i++ {
		h.DIFAT[i] = uint32(i)
	}

	root := dirEntry("Root Entry", 5)
	root.Child = 1
	root.Start = endOfChain
	book := dirEntry("Workbook", 2)
	book.Start = uint32(dataSID)
	book.Size = uint32(len(stream))

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, h)
	_ = binary.Write(&out, binary.LittleEndian, fat)
	_ = binary.Write(&out, binary.LittleEndian, root)
	_ = binary.Write(&out, binary.LittleEndian, book)
	out.Write(make([]byte, sectorSize-2*dirEntrySize))
	out.Write(stream)
	return out.Bytes()
}
