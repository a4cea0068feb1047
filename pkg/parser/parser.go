package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxLineSize caps a single log line. Longer lines keep their first
// MaxLineSize bytes and are flagged as Truncated; the rest is discarded.
const MaxLineSize = 1024 * 1024

// FileSource implements LogSource for reading from log files.
type FileSource struct {
	files []string

	currentFile   *os.File
	currentReader *bufio.Reader
	currentSource string
	currentLine   int
	fileIndex     int
}

// NewFileSource creates a LogSource that reads the given files in order.
func NewFileSource(files []string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next log line.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		content, truncated, err := s.readLine()
		if err == nil {
			s.currentLine++
			return &LogLine{
				Content:   content,
				Source:    s.currentSource,
				LineNum:   s.currentLine,
				Truncated: truncated,
			}, nil
		}
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", s.currentSource, err)
		}

		// Current file exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// readLine returns the next line without its line ending. Bytes beyond
// MaxLineSize are read and dropped so one oversized line never stops the file.
func (s *FileSource) readLine() (string, bool, error) {
	var buf []byte
	read := 0
	truncated := false

	for {
		chunk, err := s.currentReader.ReadSlice('\n')
		read += len(chunk)
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}

		if !truncated {
			if room := MaxLineSize - len(buf); len(chunk) > room {
				buf = append(buf, chunk[:room]...)
				truncated = true
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if read == 0 {
				return "", false, io.EOF
			}
		default:
			return "", false, err
		}

		return strings.TrimRight(string(buf), "\r"), truncated, nil
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentReader = bufio.NewReaderSize(f, 64*1024)
	s.currentSource = path
	s.currentLine = 0

	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		s.currentReader = nil
		return err
	}
	return nil
}

// ReadLines reads a whole file into lines.
// A missing or unreadable file is returned as an error for the caller to report.
func ReadLines(ctx context.Context, path string) ([]LogLine, error) {
	src := NewFileSource([]string{path})
	defer src.Close()
	return Collect(ctx, src)
}

// SplitLines splits in-memory text into lines tagged with source.
// A trailing newline does not produce an extra empty line.
func SplitLines(text, source string) []LogLine {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	parts := strings.Split(text, "\n")
	lines := make([]LogLine, len(parts))
	for i, p := range parts {
		lines[i] = LogLine{Content: p, Source: source, LineNum: i + 1}
	}
	return lines
}

// CountTruncated returns the number of lines cut at MaxLineSize.
func CountTruncated(lines []LogLine) int {
	n := 0
	for _, l := range lines {
		if l.Truncated {
			n++
		}
	}
	return n
}

// Contents returns the raw text of each line.
func Contents(lines []LogLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Content
	}
	return out
}
