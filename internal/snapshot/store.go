package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hogyzen12/optimisoor/config"
	"github.com/hogyzen12/optimisoor/logger"
	"github.com/hogyzen12/optimisoor/models"
)

// ErrNotFound marks the expected no-data-yet case when reading the combined
// snapshot before the first cycle has completed.
var ErrNotFound = errors.New("snapshot not found")

const combinedFileName = "token_data.json"

// Store owns the on-disk snapshot layout: a working data directory holding
// the current cycle's artifacts and dated YYYYMMDD subdirectories holding
// completed cycles.
type Store struct {
	dataDir    string
	figuresDir string
	log        *logger.Entry
}

func NewStore(cfg config.SnapshotConfig) *Store {
	return &Store{
		dataDir:    cfg.DataDir,
		figuresDir: cfg.FiguresDir,
		log:        logger.GetLogger().WithComponent("snapshot"),
	}
}

// DataDir returns the working directory for the current cycle's artifacts.
func (s *Store) DataDir() string {
	return s.dataDir
}

// FiguresDir returns the directory holding the latest rendered outputs.
func (s *Store) FiguresDir() string {
	return s.figuresDir
}

// WriteCombined atomically replaces the combined snapshot file. The payload
// is written to a temp file in the same directory and renamed into place so
// readers never observe a half-written snapshot.
func (s *Store) WriteCombined(snap models.Snapshot) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode combined snapshot: %w", err)
	}

	if err := s.writeAtomic(filepath.Join(s.dataDir, combinedFileName), data); err != nil {
		return fmt.Errorf("write combined snapshot: %w", err)
	}

	logger.IncrementSnapshotWrite(int64(len(data)))
	s.log.WithFields(logger.Fields{"assets": len(snap), "bytes": len(data)}).Info("wrote combined snapshot")
	return nil
}

// ReadCombined loads the combined snapshot. A missing file maps to
// ErrNotFound, which callers treat as "no data yet" rather than a failure.
func (s *Store) ReadCombined() (models.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, combinedFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read combined snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode combined snapshot: %w", err)
	}
	return snap, nil
}

// WriteRawAccounts persists the raw page-concatenated holder records for one
// asset, independent of normalization.
func (s *Store) WriteRawAccounts(assetID string, records []models.HolderRecord) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode raw accounts for %s: %w", assetID, err)
	}

	name := fmt.Sprintf("%s_accounts.json", assetID)
	if err := s.writeAtomic(filepath.Join(s.dataDir, name), data); err != nil {
		return fmt.Errorf("write raw accounts for %s: %w", assetID, err)
	}
	return nil
}

// WriteArtifact stores an arbitrary named artifact (rendered report, parquet
// export) in the working directory so the cycle sweep picks it up.
func (s *Store) WriteArtifact(name string, data []byte) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.dataDir, name), data); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

// WriteFigure stores a rendered output in the figures directory. Unlike
// WriteArtifact the file is overwritten in place each cycle and never swept
// into a day bucket; the figures directory always holds the latest render.
func (s *Store) WriteFigure(name string, data []byte) error {
	if s.figuresDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.figuresDir, 0o755); err != nil {
		return fmt.Errorf("create figures directory: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.figuresDir, strings.ReplaceAll(name, " ", "_")), data); err != nil {
		return fmt.Errorf("write figure %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// NewestArtifactTime returns the most recent modification time among the
// JSON artifacts directly inside dir. The second return is false when the
// directory is missing or holds no artifacts.
func (s *Store) NewestArtifactTime(dir string) (time.Time, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, false
	}

	var newest time.Time
	found := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(newest) {
			newest = info.ModTime()
			found = true
		}
	}
	return newest, found
}

// DatedDir resolves and creates the day bucket for t, e.g. data/20260901.
func (s *Store) DatedDir(t time.Time) (string, error) {
	dir := filepath.Join(s.dataDir, t.Format("20060102"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create dated directory: %w", err)
	}
	return dir, nil
}

// MoveCycleArtifacts sweeps the working directory's artifacts into the dated
// bucket. Spaces in file names are replaced with underscores so the names
// stay URL-safe once uploaded.
func (s *Store) MoveCycleArtifacts(datedDir string) error {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("list data directory: %w", err)
	}

	moved := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".parquet") {
			continue
		}
		dest := filepath.Join(datedDir, strings.ReplaceAll(name, " ", "_"))
		if err := os.Rename(filepath.Join(s.dataDir, name), dest); err != nil {
			return fmt.Errorf("move artifact %s: %w", name, err)
		}
		moved++
	}

	s.log.WithFields(logger.Fields{"moved": moved, "dir": datedDir}).Info("moved cycle artifacts")
	return nil
}

// CycleState derives the scheduling inputs for one staleness decision from
// the dated directory's artifacts. Derived once per decision so the whole
// decision sees one consistent view.
func (s *Store) CycleState(dir string) models.CycleState {
	newest, known := s.NewestArtifactTime(dir)
	return models.CycleState{
		LastFetch: newest,
		Known:     known,
		DayBucket: filepath.Base(dir),
	}
}
