package artifact

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ngenohkevin/sysinfo-agent/internal/relay"
)

// FilenameLayout names persisted reports, e.g. sysinfo_19_10_2026_14_03_22.html
const FilenameLayout = "sysinfo_02_01_2006_15_04_05.html"

// MimeHTML is the attachment type of persisted reports
const MimeHTML = "text/html"

// ErrNoBaseDir is returned when the configuration file holds no directory
var ErrNoBaseDir = errors.New("report directory not configured")

// Store persists HTML reports under the directory named in a single-line
// configuration file. The file is read on every call so edits apply
// without a restart.
type Store struct {
	confFile string
}

// NewStore creates a store reading its base directory from confFile
func NewStore(confFile string) *Store {
	return &Store{confFile: confFile}
}

// BaseDir returns the directory reports are written to
func (s *Store) BaseDir() (string, error) {
	f, err := os.Open(s.confFile)
	if err != nil {
		return "", fmt.Errorf("failed to open report config: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoBaseDir, s.confFile)
	}

	dir := strings.TrimRightFunc(line, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	if dir == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoBaseDir, s.confFile)
	}
	return dir, nil
}

// Save writes the report, reads it back and wraps it as a base64 attachment.
// The report is written to a private temporary file and renamed into place,
// so callers saving in the same second each get their own bytes back. The
// final file is kept.
func (s *Store) Save(html []byte, at time.Time) (*relay.Attachment, error) {
	dir, err := s.BaseDir()
	if err != nil {
		return nil, err
	}

	filename := at.Format(FilenameLayout)

	tmp, err := writeTemp(dir, html)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to read back report: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(dir, filename)); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to move report into place: %w", err)
	}

	return &relay.Attachment{
		Content:  base64.StdEncoding.EncodeToString(data),
		MimeType: MimeHTML,
		Filename: filename,
	}, nil
}

// writeTemp writes data to a new hidden file in dir and returns its path.
// The file is removed again if writing or closing fails.
func writeTemp(dir string, data []byte) (_ string, err error) {
	f, err := os.CreateTemp(dir, ".sysinfo-*")
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	name := f.Name()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", closeErr)
		}
		if err != nil {
			os.Remove(name)
		}
	}()

	// CreateTemp uses 0600; kept reports are world-readable
	if err := f.Chmod(0644); err != nil {
		return "", fmt.Errorf("failed to chmod report: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return name, nil
}
