package mip

// Parser reassembles MIP frames from an arbitrary chunked byte stream. Bytes
// are appended with Write and complete packets drained with Next. Frames
// with a bad checksum or an inconsistent field layout are dropped and the
// parser resynchronizes on the next sync sequence; corrupt input never
// surfaces to the caller.
type Parser struct {
	buf     []byte
	dropped int
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{}
}

// Write appends raw bytes from the transport.
func (p *Parser) Write(b []byte) {
	p.buf = append(p.buf, b...)
}

// Dropped reports how many malformed frames have been discarded so far.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Next returns the next complete, checksum-valid packet, or false when no
// full frame is buffered. It never blocks.
func (p *Parser) Next() (Packet, bool) {
	for {
		p.resync()
		if len(p.buf) < headerLen {
			return Packet{}, false
		}

		payloadLen := int(p.buf[3])
		total := headerLen + payloadLen + checksumLen
		if len(p.buf) < total {
			return Packet{}, false
		}

		frame := p.buf[:total]
		ck1, ck2 := Fletcher(frame[:total-checksumLen])
		if ck1 != frame[total-2] || ck2 != frame[total-1] {
			// Checksum mismatch: skip one byte and rescan so a sync
			// sequence inside the bad region is not lost.
			p.buf = p.buf[1:]
			p.dropped++
			continue
		}

		fields, ok := parseFields(frame[headerLen : total-checksumLen])
		p.buf = p.buf[total:]
		if !ok {
			p.dropped++
			continue
		}
		return Packet{Descriptor: frame[2], Fields: fields}, true
	}
}

// resync discards leading bytes until the buffer starts with a sync
// sequence (or is too short to tell).
func (p *Parser) resync() {
	for len(p.buf) >= 2 && !(p.buf[0] == sync1 && p.buf[1] == sync2) {
		p.buf = p.buf[1:]
	}
	if len(p.buf) == 1 && p.buf[0] != sync1 {
		p.buf = p.buf[:0]
	}
}

func parseFields(payload []byte) ([]Field, bool) {
	var fields []Field
	for i := 0; i < len(payload); {
		fieldLen := int(payload[i])
		if fieldLen < 2 || i+fieldLen > len(payload) {
			return nil, false
		}
		data := make([]byte, fieldLen-2)
		copy(data, payload[i+2:i+fieldLen])
		fields = append(fields, Field{Descriptor: payload[i+1], Data: data})
		i += fieldLen
	}
	return fields, true
}
