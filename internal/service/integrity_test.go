package service_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ChristopherCousin/Kcal/internal/db"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

func TestBackupCreateListRestore(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	if _, err := service.CreateEntry(sqldb, service.CreateEntryInput{Description: "Toast", Macros: model.Macros{Kcal: 250}, Consumed: time.Now()}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "backups")
	out := filepath.Join(dir, "kcal-1.db")
	info, err := service.CreateBackup(sqldb, out)
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if info.Checksum == "" || info.SizeBytes == 0 {
		t.Fatalf("unexpected backup info %+v", info)
	}
	if _, err := service.CreateBackup(sqldb, out); err == nil {
		t.Fatalf("expected error when backup exists")
	}

	items, err := service.ListBackups(dir)
	if err != nil || len(items) != 1 || items[0].Checksum != info.Checksum {
		t.Fatalf("unexpected backups %+v %v", items, err)
	}

	target := filepath.Join(t.TempDir(), "restored.db")
	if err := service.RestoreBackup(out, target, false); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := service.RestoreBackup(out, target, false); err == nil {
		t.Fatalf("expected restore without --force to refuse overwrite")
	}
	restored, err := db.OpenMigrated(target)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer restored.Close()
	entries, err := service.RecentEntries(restored, 10)
	if err != nil || len(entries) != 1 || entries[0].Description != "Toast" {
		t.Fatalf("unexpected restored entries %+v %v", entries, err)
	}

	if err := os.WriteFile(out+".sha256", []byte("deadbeef\n"), 0o644); err != nil {
		t.Fatalf("tamper checksum: %v", err)
	}
	if err := service.RestoreBackup(out, target, true); err == nil {
		t.Fatalf("expected checksum mismatch")
	}
}

func TestDoctorFindsAndFixesProblems(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)

	if err := service.SetState(sqldb, service.StateUserProfile, "{broken"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := service.SetState(sqldb, "legacyTheme", "dark mode"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if _, err := service.MarkLaunched(sqldb); err != nil {
		t.Fatalf("mark launched: %v", err)
	}
	if _, err := service.CreateEntry(sqldb, service.CreateEntryInput{
		Description: "Photo meal",
		Macros:      model.Macros{Kcal: 400},
		Source:      model.SourceAIPhoto,
		ImageRef:    filepath.Join(t.TempDir(), "gone.jpg"),
		Consumed:    time.Now(),
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	report, err := service.RunDoctor(sqldb, false)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if report.Healthy() || report.MissingImages != 1 || strings.Join(report.CorruptState, ",") != "legacyTheme,userProfile" {
		t.Fatalf("unexpected report %+v", report)
	}

	report, err = service.RunDoctor(sqldb, true)
	if err != nil {
		t.Fatalf("doctor fix: %v", err)
	}
	if report.FixedStateRecords != 2 || report.ClearedImageRefs != 1 {
		t.Fatalf("unexpected fix report %+v", report)
	}

	report, err = service.RunDoctor(sqldb, false)
	if err != nil || !report.Healthy() {
		t.Fatalf("expected healthy after fix, got %+v %v", report, err)
	}
	if _, seen, err := service.GetState(sqldb, service.StateHasLoadedBefore); err != nil || !seen {
		t.Fatalf("expected launch flag to survive doctor, got %v %v", seen, err)
	}
}
