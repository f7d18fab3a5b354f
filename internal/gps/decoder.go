package gps

import (
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// maxSentence bounds the line buffer; NMEA sentences are at most 82 bytes.
const maxSentence = 128

// Decoder is a Provider for NMEA 0183 receivers. RMC sentences update date,
// time and (when the receiver reports a fix) location; GGA sentences update
// time, satellites in use and location. Malformed sentences are dropped.
type Decoder struct {
	line     []byte
	status   Status
	accepted int
	rejected int
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{line: make([]byte, 0, maxSentence)}
}

// Encode implements Provider.
func (d *Decoder) Encode(b byte) bool {
	switch b {
	case '$':
		d.line = append(d.line[:0], b)
		return false
	case '\r', '\n':
		if len(d.line) == 0 {
			return false
		}
		raw := string(d.line)
		d.line = d.line[:0]
		return d.commit(raw)
	}

	if len(d.line) == 0 {
		// noise between sentences
		return false
	}
	if len(d.line) >= maxSentence {
		d.line = d.line[:0]
		d.rejected++
		return false
	}
	d.line = append(d.line, b)
	return false
}

func (d *Decoder) commit(raw string) bool {
	s, err := nmea.Parse(strings.TrimSpace(raw))
	if err != nil {
		d.rejected++
		return false
	}

	switch m := s.(type) {
	case nmea.RMC:
		d.setTime(m.Time)
		if m.Date.Valid {
			d.status.Day = m.Date.DD
			d.status.Month = m.Date.MM
			d.status.Year = 2000 + m.Date.YY
			d.status.DateValid = true
			d.status.DateUpdated = true
		}
		if m.Validity == nmea.ValidRMC {
			d.setLocation()
		}
	case nmea.GGA:
		d.setTime(m.Time)
		if m.FixQuality != nmea.Invalid {
			d.setLocation()
		}
		d.status.Satellites = int(m.NumSatellites)
	default:
		// Sentences that carry no time information are still valid input.
	}

	d.accepted++
	return true
}

func (d *Decoder) setTime(t nmea.Time) {
	if !t.Valid {
		return
	}
	d.status.Hour = t.Hour
	d.status.Minute = t.Minute
	d.status.Second = t.Second
	d.status.TimeValid = true
	d.status.TimeUpdated = true
}

func (d *Decoder) setLocation() {
	d.status.LocationValid = true
	d.status.LocationUpdated = true
}

// Status implements Provider.
func (d *Decoder) Status() Status {
	return d.status
}

// Consume implements Provider.
func (d *Decoder) Consume() {
	d.status.LocationUpdated = false
	d.status.DateUpdated = false
	d.status.TimeUpdated = false
}

// Stats returns the number of accepted and rejected sentences.
func (d *Decoder) Stats() (accepted, rejected int) {
	return d.accepted, d.rejected
}
