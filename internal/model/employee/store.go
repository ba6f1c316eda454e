package employee

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the employee collection as a unit.
type Store interface {
	Load(ctx context.Context) ([]Employee, error)
	SaveAll(ctx context.Context, records []Employee) error
	Append(ctx context.Context, record Employee) error
}

// CSVStore implements Store on top of a single comma separated file.
type CSVStore struct {
	path string

	mu    sync.Mutex
	stamp fileStamp
}

// fileStamp is what the store last saw of the file on disk.
type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{exists: true, size: info.Size(), modTime: info.ModTime()}
}

// NewCSVStore returns a store backed by path, creating the file with only
// the header row when it does not exist yet.
func NewCSVStore(path string) (*CSVStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("employee store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	s := &CSVStore{path: path}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	s.refreshStamp()
	return s, nil
}

// Path returns the location of the data file.
func (s *CSVStore) Path() string {
	return s.path
}

// Load parses every row of the file. Columns are located by header name.
func (s *CSVStore) Load(ctx context.Context) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open employees file: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		s.stamp = stampOf(info)
	}

	return readRecords(f)
}

func readRecords(r io.Reader) ([]Employee, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Employee{}, nil
	}
	if err != nil {
		return nil, asParseError(err, 1)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	index := make([]int, len(Header))
	for i, name := range Header {
		col, ok := columns[name]
		if !ok {
			return nil, &ParseError{Line: 1, Err: fmt.Errorf("missing column %q", name)}
		}
		index[i] = col
	}

	records := make([]Employee, 0, 16)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, asParseError(err, 0)
		}
		line, _ := reader.FieldPos(0)

		id, err := strconv.Atoi(strings.TrimSpace(row[index[0]]))
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("invalid id %q", row[index[0]])}
		}
		salary, err := strconv.ParseFloat(strings.TrimSpace(row[index[3]]), 64)
		if err != nil || math.IsNaN(salary) || math.IsInf(salary, 0) {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("invalid salary %q", row[index[3]])}
		}

		records = append(records, Employee{
			ID:     id,
			Name:   row[index[1]],
			Role:   row[index[2]],
			Salary: salary,
		})
	}
	return records, nil
}

func asParseError(err error, line int) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}
	return &ParseError{Line: line, Err: err}
}

// SaveAll replaces the file with the header followed by records in order.
// The rows are written to a sibling temp file which is then renamed over
// the data file.
func (s *CSVStore) SaveAll(ctx context.Context, records []Employee) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeAll(records)
}

func (s *CSVStore) writeAll(records []Employee) error {
	dir, base := filepath.Split(s.path)
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp employees file: %w", err)
	}

	if err := writeRows(f, records, true); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp employees file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace employees file: %w", err)
	}

	s.refreshStamp()
	return nil
}

// Append adds a single row at the end of the file.
func (s *CSVStore) Append(ctx context.Context, record Employee) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open employees file for append: %w", err)
	}
	if err := terminateLastLine(f); err != nil {
		f.Close()
		return err
	}
	if err := writeRows(f, []Employee{record}, false); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close employees file: %w", err)
	}

	s.refreshStamp()
	return nil
}

// terminateLastLine adds the newline an outside edit may have left off, so
// the appended row starts on a line of its own.
func terminateLastLine(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat employees file: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("read employees file tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("terminate last row: %w", err)
	}
	return nil
}

// Changed reports whether the file on disk differs from what the store last
// read or wrote, and remembers the current state so that one edit is
// reported once.
func (s *CSVStore) Changed() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		changed := s.stamp.exists
		s.stamp = fileStamp{}
		return changed, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat employees file: %w", err)
	}

	current := stampOf(info)
	if s.stamp.exists && current.size == s.stamp.size && current.modTime.Equal(s.stamp.modTime) {
		return false, nil
	}
	s.stamp = current
	return true, nil
}

// ensureFile writes a header-only file when none exists. Callers hold mu.
func (s *CSVStore) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat employees file: %w", err)
	}
	return s.writeAll(nil)
}

func (s *CSVStore) refreshStamp() {
	if info, err := os.Stat(s.path); err == nil {
		s.stamp = stampOf(info)
	}
}

func writeRows(w io.Writer, records []Employee, header bool) error {
	writer := csv.NewWriter(w)
	if header {
		if err := writer.Write(Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, record := range records {
		if err := writer.Write(record.row()); err != nil {
			return fmt.Errorf("write employee %d: %w", record.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush employees file: %w", err)
	}
	return nil
}
