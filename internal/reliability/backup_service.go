package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/database"
)

const (
	archivePrefix    = "fintrack-backup-"
	archiveTimestamp = "2006-01-02-150405"
	minBackupsToKeep = 3
)

// BackupService snapshots the application databases, archives them and
// ships the archive to the object store.
type BackupService struct {
	client    *S3Client
	databases []*database.DB
	dataDir   string
	retention int
	log       zerolog.Logger
}

// BackupMetadata describes the contents of a backup archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes a single database file in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes a backup archive stored remotely
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewBackupService creates a backup service over the given databases
func NewBackupService(client *S3Client, databases []*database.DB, dataDir string, retention int, log zerolog.Logger) *BackupService {
	return &BackupService{
		client:    client,
		databases: databases,
		dataDir:   dataDir,
		retention: retention,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots every database, builds a tar.gz archive
// and uploads it.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := BackupMetadata{
		Timestamp: time.Now().UTC(),
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}

	var filenames []string
	for _, db := range s.databases {
		filename := db.Name() + ".db"
		snapshotPath := filepath.Join(stagingDir, filename)

		s.log.Debug().Str("database", db.Name()).Msg("Snapshotting database")

		// VACUUM INTO produces a consistent point-in-time copy without
		// blocking writers
		if _, err := db.Exec("VACUUM INTO ?", snapshotPath); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		info, err := os.Stat(snapshotPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}

		checksum, err := fileChecksum(snapshotPath)
		if err != nil {
			return fmt.Errorf("failed to checksum %s snapshot: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		filenames = append(filenames, filename)
	}

	metadataPath := filepath.Join(stagingDir, "backup-metadata.json")
	if err := writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	filenames = append(filenames, "backup-metadata.json")

	archiveName := archivePrefix + time.Now().Format(archiveTimestamp) + ".tar.gz"
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, stagingDir, filenames); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.client.Upload(ctx, archiveName, archiveFile); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Msg("Backup completed")

	return nil
}

// ListBackups lists the backup archives stored remotely, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.client.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		filename := *obj.Key
		if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, ".tar.gz") {
			continue
		}

		timestampStr := strings.TrimSuffix(strings.TrimPrefix(filename, archivePrefix), ".tar.gz")
		timestamp, err := time.Parse(archiveTimestamp, timestampStr)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups beyond the retention count.
// The newest minBackupsToKeep archives are always kept.
func (s *BackupService) RotateOldBackups(ctx context.Context) error {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	keep := s.retention
	if keep < minBackupsToKeep {
		keep = minBackupsToKeep
	}
	if len(backups) <= keep {
		return nil
	}

	deleted := 0
	for _, backup := range backups[keep:] {
		if err := s.client.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", backup.Filename).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return nil
}

// RestoreLatest downloads the newest backup archive and extracts it into
// destDir, verifying every database file against the checksums recorded in
// the archive metadata.
func (s *BackupService) RestoreLatest(ctx context.Context, destDir string) (*BackupMetadata, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups available")
	}
	latest := backups[0]

	s.log.Info().Str("archive", latest.Filename).Msg("Restoring latest backup")

	body, err := s.client.Download(ctx, latest.Filename)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create restore directory: %w", err)
	}
	if err := extractArchive(body, destDir); err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", latest.Filename, err)
	}

	metadata, err := readMetadata(filepath.Join(destDir, "backup-metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup metadata: %w", err)
	}

	for _, db := range metadata.Databases {
		checksum, err := fileChecksum(filepath.Join(destDir, db.Filename))
		if err != nil {
			return nil, fmt.Errorf("failed to checksum restored %s: %w", db.Name, err)
		}
		if checksum != db.Checksum {
			return nil, fmt.Errorf("checksum mismatch for restored %s", db.Name)
		}
	}

	s.log.Info().
		Str("archive", latest.Filename).
		Int("databases", len(metadata.Databases)).
		Msg("Restore completed")

	return metadata, nil
}

// VerifyLatest restores the newest backup to a temporary directory and runs
// an integrity check on every restored database.
func (s *BackupService) VerifyLatest(ctx context.Context) error {
	tempDir, err := os.MkdirTemp("", "backup-verify-*")
	if err != nil {
		return fmt.Errorf("failed to create verification directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	metadata, err := s.RestoreLatest(ctx, tempDir)
	if err != nil {
		return err
	}

	for _, db := range metadata.Databases {
		if err := checkRestoredDatabase(ctx, filepath.Join(tempDir, db.Filename)); err != nil {
			return fmt.Errorf("verification failed for %s: %w", db.Name, err)
		}
	}

	s.log.Info().Int("databases", len(metadata.Databases)).Msg("Backup verification passed")
	return nil
}

// checkRestoredDatabase opens a restored snapshot read-only and runs a
// sqlite integrity check on it.
func checkRestoredDatabase(ctx context.Context, path string) error {
	conn, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open restored database: %w", err)
	}
	defer conn.Close()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned %q", result)
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func readMetadata(path string) (*BackupMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var metadata BackupMetadata
	if err := json.NewDecoder(file).Decode(&metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// extractArchive unpacks a tar.gz stream into destDir. Entry names are
// flat filenames; anything traversing out of destDir is rejected.
func extractArchive(r io.Reader, destDir string) error {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}

		name := filepath.Base(header.Name)
		if name != header.Name || name == "." || name == ".." {
			return fmt.Errorf("unexpected archive entry name: %s", header.Name)
		}

		if err := writeExtractedFile(filepath.Join(destDir, name), tarReader, header.Mode); err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}
}

func writeExtractedFile(path string, r io.Reader, mode int64) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(mode))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, r)
	return err
}

func createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}
	return nil
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tarWriter, file)
	return err
}
