package flatfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/levelup/internal/domain/model"
)

// CSV layouts. The point layout is the date,exp,note study log export with
// an id column in front.
var (
	pointHeader  = []string{"id", "date", "exp", "note"}
	damageHeader = []string{"id", "date", "source", "raw_score", "damage"}
)

// ErrMalformed reports a log file that cannot be decoded.
var ErrMalformed = errors.New("malformed log file")

// WritePoints encodes events with a header row.
func WritePoints(w io.Writer, events []model.PointEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pointHeader); err != nil {
		return err
	}
	for i := range events {
		if err := cw.Write(pointRecord(events[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDamage encodes events with a header row.
func WriteDamage(w io.Writer, events []model.DamageEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(damageHeader); err != nil {
		return err
	}
	for i := range events {
		if err := cw.Write(damageRecord(events[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPoints decodes a point log written by WritePoints.
func ReadPoints(r io.Reader) ([]model.PointEvent, error) {
	rows, err := readRows(r, pointHeader)
	if err != nil {
		return nil, err
	}
	out := make([]model.PointEvent, 0, len(rows))
	for n, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d date: %v", ErrMalformed, n+1, err)
		}
		amount, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d exp: %v", ErrMalformed, n+1, err)
		}
		out = append(out, model.PointEvent{ID: row[0], Timestamp: ts, Amount: amount, Label: row[3]})
	}
	return out, nil
}

// ReadDamage decodes a damage log written by WriteDamage.
func ReadDamage(r io.Reader) ([]model.DamageEvent, error) {
	rows, err := readRows(r, damageHeader)
	if err != nil {
		return nil, err
	}
	out := make([]model.DamageEvent, 0, len(rows))
	for n, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d date: %v", ErrMalformed, n+1, err)
		}
		raw, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d raw_score: %v", ErrMalformed, n+1, err)
		}
		dmg, err := strconv.ParseInt(row[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d damage: %v", ErrMalformed, n+1, err)
		}
		out = append(out, model.DamageEvent{ID: row[0], Timestamp: ts, SourceLabel: row[2], RawScore: raw, Damage: dmg})
	}
	return out, nil
}

func pointRecord(e model.PointEvent) []string {
	return []string{e.ID, e.Timestamp.Format(time.RFC3339Nano), strconv.FormatInt(e.Amount, 10), e.Label}
}

func damageRecord(e model.DamageEvent) []string {
	return []string{
		e.ID,
		e.Timestamp.Format(time.RFC3339Nano),
		e.SourceLabel,
		strconv.FormatFloat(e.RawScore, 'g', -1, 64),
		strconv.FormatInt(e.Damage, 10),
	}
}

// appendRow returns data with record appended, adding header first when
// data is empty.
func appendRow(data []byte, header, record []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) + 64)
	buf.Write(data)
	cw := csv.NewWriter(&buf)
	if len(data) == 0 {
		if err := cw.Write(header); err != nil {
			return nil, err
		}
	}
	if err := cw.Write(record); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readRows(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, col := range header {
		if rows[0][i] != col {
			return nil, fmt.Errorf("%w: unexpected header %v", ErrMalformed, rows[0])
		}
	}
	return rows[1:], nil
}
