package devserver

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
)

// ErrNoEmailColumn is returned for CSV uploads without an "email" header
var ErrNoEmailColumn = errors.New(`csv file has no "email" column`)

// Recipient is one parsed row of an uploaded list
type Recipient struct {
	Email string
	Name  string
	Valid bool
}

// NormalizeAddress validates a bare email address and lower-cases its
// domain. Display names and angle brackets are rejected.
func NormalizeAddress(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return s, false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || at == len(addr.Address)-1 {
		return s, false
	}
	domain := addr.Address[at+1:]
	if !strings.Contains(domain, ".") {
		return s, false
	}
	return addr.Address[:at+1] + strings.ToLower(domain), true
}

// ParseRecipients reads an uploaded file: a CSV with an "email" column
// (and optionally "name" or "nome") or plain text with one address per line.
func ParseRecipients(fileName string, data []byte) ([]Recipient, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".csv") || looksLikeCSV(data) {
		return parseCSV(data)
	}
	return parseLines(data), nil
}

func looksLikeCSV(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	line = bytes.ToLower(bytes.TrimSpace(line))
	return bytes.Contains(line, []byte(",")) && bytes.Contains(line, []byte("email"))
}

func parseLines(data []byte) []Recipient {
	var out []Recipient
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		email, ok := NormalizeAddress(line)
		out = append(out, Recipient{Email: email, Valid: ok})
	}
	return out
}

func parseCSV(data []byte) ([]Recipient, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEmailColumn
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	emailCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "email", "e-mail":
			emailCol = i
		case "name", "nome":
			nameCol = i
		}
	}
	if emailCol < 0 {
		return nil, ErrNoEmailColumn
	}

	var out []Recipient
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if emailCol >= len(rec) || strings.TrimSpace(rec[emailCol]) == "" {
			continue
		}
		email, ok := NormalizeAddress(rec[emailCol])
		row := Recipient{Email: email, Valid: ok}
		if nameCol >= 0 && nameCol < len(rec) {
			row.Name = strings.TrimSpace(rec[nameCol])
		}
		out = append(out, row)
	}
	return out, nil
}
