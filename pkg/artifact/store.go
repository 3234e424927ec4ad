package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"xhscollect/pkg/models"
)

const (
	// rootDirName is the fixed directory that holds everything a collection
	// run produces, nested under the configured data directory.
	rootDirName = "rights_protection"

	excelDirName = "excel"
	mediaDirName = "media"
	logsDirName  = "logs"

	fileStampLayout = "20060102_150405"
	dayStampLayout  = "20060102"
)

// ExcelWriter persists a batch of records as a spreadsheet. The concrete
// implementation lives in the export package; the store only decides where
// files go.
type ExcelWriter interface {
	Write(records []models.Record, path string) error
}

// Store owns the on-disk artifact layout:
//
//	<base>/rights_protection/
//	    excel/<category>/<key>_<timestamp>.xlsx
//	    media/<category>/<key>/<file>
//	    logs/collector_<date>.log
//	    stats_<category>_<timestamp>.json
//
// Category and partition-key directories are created on demand, so empty
// categories leave no trace.
type Store struct {
	dataDir string
	excel   ExcelWriter
}

// NewStore creates the rights_protection skeleton under baseDir and returns
// a store rooted there. excel may be nil when the caller never writes
// spreadsheets.
func NewStore(baseDir string, excel ExcelWriter) (*Store, error) {
	dataDir := filepath.Join(baseDir, rootDirName)

	for _, dir := range []string{
		dataDir,
		filepath.Join(dataDir, excelDirName),
		filepath.Join(dataDir, mediaDirName),
		filepath.Join(dataDir, logsDirName),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}

	return &Store{dataDir: dataDir, excel: excel}, nil
}

// DataDir returns the rights_protection root.
func (s *Store) DataDir() string {
	return s.dataDir
}

// LogDir returns the directory that holds collector log files.
func (s *Store) LogDir() string {
	return filepath.Join(s.dataDir, logsDirName)
}

// LogFilePath computes the daily log file path under baseDir without
// requiring a Store, so logging can start before the layout exists.
func LogFilePath(baseDir string, t time.Time) string {
	name := fmt.Sprintf("collector_%s.log", t.Format(dayStampLayout))
	return filepath.Join(baseDir, rootDirName, logsDirName, name)
}

// ExcelPath returns the spreadsheet path for one keyword (or user) batch and
// makes sure the category directory exists. The timestamp in the filename
// keeps repeated runs of the same keyword from overwriting each other.
func (s *Store) ExcelPath(category, key string, t time.Time) (string, error) {
	dir := filepath.Join(s.dataDir, excelDirName, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create excel directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.xlsx", key, t.Format(fileStampLayout))
	return filepath.Join(dir, name), nil
}

// MediaDir returns the media directory for one keyword (or user) partition,
// creating it if needed.
func (s *Store) MediaDir(category, key string) (string, error) {
	dir := filepath.Join(s.dataDir, mediaDirName, category, key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	return dir, nil
}

// StatsPath returns the run-stats file path for a category. Stats files sit
// directly under the rights_protection root so one glob finds every run.
func (s *Store) StatsPath(category string, t time.Time) string {
	name := fmt.Sprintf("stats_%s_%s.json", category, t.Format(fileStampLayout))
	return filepath.Join(s.dataDir, name)
}

// WriteExcel persists a record batch into the category layout using the
// configured writer.
func (s *Store) WriteExcel(records []models.Record, category, key string) error {
	if s.excel == nil {
		return fmt.Errorf("no excel writer configured")
	}
	path, err := s.ExcelPath(category, key, time.Now())
	if err != nil {
		return err
	}
	return s.excel.Write(records, path)
}

// SaveMedia stores one media file under media/<category>/<key>/. The data is
// staged in a temporary file and renamed into place so interrupted downloads
// never leave partial files behind.
func (s *Store) SaveMedia(r io.Reader, category, key, filename string) error {
	dir, err := s.MediaDir(category, key)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, filename)

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save media data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
