package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"shopdb/src/helpers"
	"shopdb/src/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// SnapshotStore is the persistence collaborator contract. After each
// successful mutation the owning service hands over the full post-mutation
// record set for the affected kind; the store is responsible for durability.
type SnapshotStore interface {
	SaveSnapshot(kind EntityKind, records interface{}) error
	LoadSnapshot(kind EntityKind, dest interface{}) error
	SnapshotExists(kind EntityKind) bool
	RemoveSnapshot(kind EntityKind) error
}

// FileSnapshotStorageEngine writes one BSON-encoded snapshot file per entity
// kind under the data directory. When a snapshot key is configured the
// payload is sealed with AES-GCM under an argon2-derived key.
type FileSnapshotStorageEngine struct {
	DataDirectory string
	logger        *zap.SugaredLogger
	key           []byte // nil when encryption is off
}

type snapshotEnvelope struct {
	Kind    string      `bson:"kind"`
	SavedAt time.Time   `bson:"saved_at"`
	Records interface{} `bson:"records"`
}

type snapshotEnvelopeRaw struct {
	Kind    string        `bson:"kind"`
	SavedAt time.Time     `bson:"saved_at"`
	Records bson.RawValue `bson:"records"`
}

// NewSnapshotStore creates a new file snapshot store rooted at dataDir.
func NewSnapshotStore(dataDir string, logger *zap.SugaredLogger) (*FileSnapshotStorageEngine, error) {
	store := &FileSnapshotStorageEngine{
		DataDirectory: dataDir,
		logger:        logger,
	}

	// Ensure the data directory exists
	if err := os.MkdirAll(store.DataDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", store.DataDirectory, err)
	}

	if passphrase := settings.GetSettings().SnapshotKey; passphrase != "" {
		store.key = deriveSnapshotKey(passphrase)
	}

	return store, nil
}

func (e *FileSnapshotStorageEngine) snapshotPath(kind EntityKind) string {
	return filepath.Join(e.DataDirectory, fmt.Sprintf("%s.snap", kind))
}

// SaveSnapshot replaces the snapshot file for the kind with the given
// record set.
func (e *FileSnapshotStorageEngine) SaveSnapshot(kind EntityKind, records interface{}) error {
	data, err := helpers.EncodeBSON(snapshotEnvelope{
		Kind:    string(kind),
		SavedAt: time.Now(),
		Records: records,
	})
	if err != nil {
		return fmt.Errorf("error encoding snapshot for kind %s: %w", kind, err)
	}

	if e.key != nil {
		data, err = encryptSnapshot(data, e.key)
		if err != nil {
			return fmt.Errorf("error sealing snapshot for kind %s: %w", kind, err)
		}
	}

	filePath := e.snapshotPath(kind)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("error writing snapshot file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("error replacing snapshot file %s: %w", filePath, err)
	}

	args := settings.GetSettings()
	if args.Debug && e.logger != nil {
		e.logger.Debugf("Saved snapshot for kind %s (%d bytes)", kind, len(data))
	}
	return nil
}

// LoadSnapshot reads the snapshot file for the kind and decodes its records
// into dest, which must be a pointer to the kind's slice type.
func (e *FileSnapshotStorageEngine) LoadSnapshot(kind EntityKind, dest interface{}) error {
	filePath := e.snapshotPath(kind)
	if e.logger != nil && !helpers.FileExists(filePath, *e.logger) {
		return fmt.Errorf("%w: snapshot file for kind %s", ErrNotFound, kind)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading snapshot file %s: %w", filePath, err)
	}
	return e.decodeSnapshot(kind, data, dest)
}

// LoadSnapshotIntoMemory memory-maps the snapshot file instead of reading it
// whole, for large record sets.
func (e *FileSnapshotStorageEngine) LoadSnapshotIntoMemory(kind EntityKind, dest interface{}) error {
	file, err := helpers.OpenDataFile(e.DataDirectory, fmt.Sprintf("%s.snap", kind))
	if err != nil {
		return fmt.Errorf("error opening snapshot file for kind %s: %w", kind, err)
	}
	defer file.Close()

	// Get the file size
	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats: %w", err)
	}
	fileSize := int(stat.Size())

	// Memory map the file
	data, err := unix.Mmap(int(file.Fd()), 0, fileSize, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("failed to memory map snapshot file: %w", err)
	}
	defer unix.Munmap(data)

	return e.decodeSnapshot(kind, data, dest)
}

func (e *FileSnapshotStorageEngine) decodeSnapshot(kind EntityKind, data []byte, dest interface{}) error {
	if e.key != nil {
		decrypted, err := decryptSnapshot(data, e.key)
		if err != nil {
			return fmt.Errorf("error unsealing snapshot for kind %s: %w", kind, err)
		}
		data = decrypted
	}

	var envelope snapshotEnvelopeRaw
	if err := helpers.DecodeBSON(data, &envelope); err != nil {
		return fmt.Errorf("error decoding snapshot for kind %s: %w", kind, err)
	}
	if envelope.Kind != string(kind) {
		return fmt.Errorf("snapshot file holds kind %q, expected %q", envelope.Kind, kind)
	}
	if err := envelope.Records.Unmarshal(dest); err != nil {
		return fmt.Errorf("error decoding snapshot records for kind %s: %w", kind, err)
	}
	return nil
}

// SnapshotExists reports whether a snapshot file is present for the kind.
func (e *FileSnapshotStorageEngine) SnapshotExists(kind EntityKind) bool {
	info, err := os.Stat(e.snapshotPath(kind))
	return err == nil && !info.IsDir()
}

// RemoveSnapshot deletes the snapshot file for the kind.
func (e *FileSnapshotStorageEngine) RemoveSnapshot(kind EntityKind) error {
	return helpers.DeleteDataFile(e.snapshotPath(kind))
}
