package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

// BackupInfo describes one backup file. Checksum is the hex sha256 read
// from the sidecar file, empty when there is none.
type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

const (
	backupExt   = ".db"
	checksumExt = ".sha256"
)

type DoctorReport struct {
	CorruptState      []string `json:"corrupt_state,omitempty"`
	MissingImages     int      `json:"missing_images"`
	ExpiredCacheRows  int      `json:"expired_cache_rows"`
	FixedStateRecords int      `json:"fixed_state_records,omitempty"`
	ClearedImageRefs  int      `json:"cleared_image_refs,omitempty"`
	PurgedCacheRows   int64    `json:"purged_cache_rows,omitempty"`
}

func (r DoctorReport) Healthy() bool {
	return len(r.CorruptState) == 0 && r.MissingImages == 0
}

// CreateBackup writes a consistent copy of the open database to outPath
// with a .sha256 sidecar.
func CreateBackup(db *sql.DB, outPath string) (BackupInfo, error) {
	if strings.TrimSpace(outPath) == "" {
		return BackupInfo{}, fmt.Errorf("backup output path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("backup %s already exists", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup dir %s: %w", filepath.Dir(outPath), err)
	}
	if _, err := db.Exec(`VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("vacuum into %s: %w", outPath, err)
	}
	sum, err := fileSHA256(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+checksumExt, []byte(sum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write %s: %w", outPath+checksumExt, err)
	}
	return describeBackup(outPath)
}

// RestoreBackup replaces dbPath with the backup. The copy goes to a
// temporary file next to dbPath and is renamed into place only once its
// hash matches the sidecar, so a failed restore leaves the database as it
// was.
func RestoreBackup(backupPath, dbPath string, force bool) error {
	if strings.TrimSpace(backupPath) == "" || strings.TrimSpace(dbPath) == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if _, err := os.Stat(dbPath); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", dbPath)
	}
	want := readChecksum(backupPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dbPath), filepath.Base(dbPath)+".restore-*")
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}
	defer os.Remove(tmp.Name())

	got, err := copyHashed(tmp, backupPath)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close restore file: %w", cerr)
	}
	if err != nil {
		return err
	}
	if want != "" && want != got {
		return fmt.Errorf("backup checksum mismatch: sidecar %s, file %s", want, got)
	}
	if err := os.Rename(tmp.Name(), dbPath); err != nil {
		return fmt.Errorf("replace %s: %w", dbPath, err)
	}
	return nil
}

// ListBackups returns the backups in dir, newest first. A missing dir
// has no backups.
func ListBackups(dir string) ([]BackupInfo, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*"+backupExt))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	out := make([]BackupInfo, 0, len(matches))
	for _, path := range matches {
		info, err := describeBackup(path)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func describeBackup(path string) (BackupInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	if st.IsDir() {
		return BackupInfo{}, fmt.Errorf("%s is a directory", path)
	}
	return BackupInfo{Path: path, Checksum: readChecksum(path), CreatedAt: st.ModTime(), SizeBytes: st.Size()}, nil
}

func readChecksum(backupPath string) string {
	b, err := os.ReadFile(backupPath + checksumExt)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// RunDoctor checks the state blobs, photo references and the analysis
// cache. With fix it drops corrupt blobs, clears dangling photo
// references and purges expired cache rows.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}

	state, err := ListState(db)
	if err != nil {
		return report, err
	}
	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !stateParses(key, state[key]) {
			report.CorruptState = append(report.CorruptState, key)
		}
	}

	rows, err := db.Query(`SELECT id, image_ref FROM food_entries WHERE image_ref <> ''`)
	if err != nil {
		return report, fmt.Errorf("doctor image query: %w", err)
	}
	var missing []int64
	for rows.Next() {
		var id int64
		var ref string
		if err := rows.Scan(&id, &ref); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("doctor image scan: %w", err)
		}
		if _, err := os.Stat(ref); err != nil {
			missing = append(missing, id)
		}
	}
	_ = rows.Close()
	report.MissingImages = len(missing)

	if err := db.QueryRow(`SELECT COUNT(1) FROM analysis_cache WHERE expires_at < ?`, storedTime(time.Now())).Scan(&report.ExpiredCacheRows); err != nil {
		return report, fmt.Errorf("doctor cache query: %w", err)
	}

	if !fix {
		return report, nil
	}
	for _, key := range report.CorruptState {
		if err := DeleteState(db, key); err != nil {
			return report, err
		}
		report.FixedStateRecords++
	}
	if len(missing) > 0 {
		tx, err := db.Begin()
		if err != nil {
			return report, fmt.Errorf("doctor fix begin tx: %w", err)
		}
		for _, id := range missing {
			if _, err := tx.Exec(`UPDATE food_entries SET image_ref = '' WHERE id = ?`, id); err != nil {
				_ = tx.Rollback()
				return report, fmt.Errorf("doctor fix image ref %d: %w", id, err)
			}
			report.ClearedImageRefs++
		}
		if err := tx.Commit(); err != nil {
			return report, fmt.Errorf("doctor fix commit: %w", err)
		}
	}
	purged, err := PurgeAnalysisCache(db, false)
	if err != nil {
		return report, err
	}
	report.PurgedCacheRows = purged
	return report, nil
}

// stateParses reports whether a state record decodes: profile and goals
// into their types, anything else as plain JSON.
func stateParses(key, raw string) bool {
	switch key {
	case StateUserProfile:
		return json.Unmarshal([]byte(raw), &model.UserProfile{}) == nil
	case StateUserGoals:
		return json.Unmarshal([]byte(raw), &model.UserGoals{}) == nil
	default:
		return json.Valid([]byte(raw))
	}
}

// copyHashed copies src into dst and returns the hex sha256 of the bytes
// written.
func copyHashed(dst io.Writer, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), in); err != nil {
		return "", fmt.Errorf("copy backup: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileSHA256(path string) (string, error) {
	return copyHashed(io.Discard, path)
}
