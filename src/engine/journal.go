package engine

// This file contains the mutation journal for the store. Every committed
// mutation is appended here by the owning service, giving an audit trail
// that pairs with the per-kind snapshot files.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"shopdb/src/helpers"
)

// JournalEntry represents a single entry in the journal.
type JournalEntry struct {
	EntryID   string     `json:"entry_id"`
	Timestamp time.Time  `json:"timestamp"`
	Operation string     `json:"operation"`
	Kind      EntityKind `json:"kind"`
	Details   string     `json:"details"`
}

// Journal represents the mutation journal. Files rotate daily, and within a
// day once the size cap is reached.
type Journal struct {
	Entries            []JournalEntry `json:"entries"`
	file               *os.File       // File handle for the journal file
	baseFilePath       string         // Base path for journal files (without date)
	currentDate        time.Time      // The date of the current journal file
	fileSeq            int            // Rotation sequence within the current day
	maxJournalFileSize int64
	currentSize        int64
}

// NewJournal creates a new journal instance.
func NewJournal(journalFilePath string, maxFileSize int64) (*Journal, error) {
	// Store the base file path (without date)
	baseFilePath := getBaseFilePath(journalFilePath)

	journal := &Journal{
		Entries:            []JournalEntry{},
		baseFilePath:       baseFilePath,
		currentDate:        time.Now().Truncate(24 * time.Hour),
		maxJournalFileSize: maxFileSize,
	}

	// Open the current day's journal file
	if err := journal.ensureCorrectFileOpen(); err != nil {
		return nil, err
	}

	return journal, nil
}

// getBaseFilePath extracts the base path without date component
func getBaseFilePath(journalFilePath string) string {
	dir := filepath.Dir(journalFilePath)
	base := filepath.Base(journalFilePath)
	ext := filepath.Ext(journalFilePath)

	// Remove any existing date pattern (assuming YYYY-MM-DD format)
	baseName := strings.TrimSuffix(base, ext)
	datePattern := regexp.MustCompile(`_\d{4}-\d{2}-\d{2}$`)
	baseName = datePattern.ReplaceAllString(baseName, "")

	return filepath.Join(dir, baseName)
}

// ensureCorrectFileOpen ensures the correct journal file is open based on current date
func (j *Journal) ensureCorrectFileOpen() error {
	today := time.Now().Truncate(24 * time.Hour)

	// If we already have the correct file open, do nothing
	if j.file != nil && j.currentDate.Equal(today) {
		return nil
	}

	// Update journal state, resetting the rotation sequence on a new day
	j.currentDate = today
	j.fileSeq = 0

	return j.openCurrentFile()
}

// currentFileName builds the file name for the current date and rotation
// sequence. The first file of a day carries no sequence suffix.
func (j *Journal) currentFileName() string {
	dateStr := j.currentDate.Format("2006-01-02")
	if j.fileSeq == 0 {
		return fmt.Sprintf("%s_%s.journal", j.baseFilePath, dateStr)
	}
	return fmt.Sprintf("%s_%s_%d.journal", j.baseFilePath, dateStr, j.fileSeq)
}

// openCurrentFile closes any open file and opens the one named by the
// current date and sequence.
func (j *Journal) openCurrentFile() error {
	// Close the current file if it's open
	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close previous journal file: %w", err)
		}
		j.file = nil
	}

	fileName := j.currentFileName()

	// Ensure the directory exists
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Open the new journal file
	file, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file %s: %w", fileName, err)
	}

	j.file = file
	j.currentSize = 0

	return nil
}

// AddEntry appends a committed mutation to the journal.
func (j *Journal) AddEntry(operation string, kind EntityKind, details string) error {
	// Ensure the correct file is open based on current date
	if err := j.ensureCorrectFileOpen(); err != nil {
		return err
	}

	entry := JournalEntry{
		EntryID:   helpers.GenerateUUID(),
		Timestamp: time.Now(),
		Operation: operation,
		Kind:      kind,
		Details:   details,
	}

	j.Entries = append(j.Entries, entry)

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	line = append(line, '\n')

	// Rotate to a suffixed file when this entry would push past the cap.
	if j.maxJournalFileSize > 0 && j.currentSize > 0 && j.currentSize+int64(len(line)) > j.maxJournalFileSize {
		j.fileSeq++
		if err := j.openCurrentFile(); err != nil {
			return err
		}
	}

	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("failed to write to journal file: %w", err)
	}
	// Update the current size of the journal file
	j.currentSize += int64(len(line))

	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return fmt.Errorf("failed to close journal file: %w", err)
		}
		j.file = nil
	}
	return nil
}
