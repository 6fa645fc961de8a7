package printing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileStorage keeps rendered invoice PDFs on the local file system, one file
// per invoice number. Re-rendering an invoice overwrites the previous file.
type FileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileStorage creates the storage directory if needed.
func NewFileStorage(baseDir string, logger *zap.Logger) (*FileStorage, error) {
	if baseDir == "" {
		baseDir = "./invoices"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice storage directory: %w", err)
	}
	return &FileStorage{baseDir: baseDir, logger: logger}, nil
}

// Store writes the PDF for an invoice and returns its path.
func (s *FileStorage) Store(invoiceNumber string, pdfData []byte) (string, error) {
	name, err := safeFileName(invoiceNumber)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.baseDir, name+".pdf")
	if err := os.WriteFile(path, pdfData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice PDF: %w", err)
	}

	s.logger.Debug("Stored invoice PDF",
		zap.String("invoice_number", invoiceNumber),
		zap.String("path", path),
		zap.Int("bytes", len(pdfData)))
	return path, nil
}

// Read returns the stored PDF for an invoice.
func (s *FileStorage) Read(invoiceNumber string) ([]byte, error) {
	name, err := safeFileName(invoiceNumber)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.baseDir, name+".pdf"))
}

// CleanupOlderThan removes PDFs older than the given age and reports how many
// files were deleted.
func (s *FileStorage) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list invoice storage: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err == nil {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("Cleaned up old invoice PDFs", zap.Int("removed", removed))
	}
	return removed, nil
}

// safeFileName rejects invoice numbers that could escape the storage
// directory. Generated numbers are digits only, so anything else is suspect.
func safeFileName(invoiceNumber string) (string, error) {
	if invoiceNumber == "" || strings.ContainsAny(invoiceNumber, `/\.`) {
		return "", fmt.Errorf("invalid invoice number %q for storage", invoiceNumber)
	}
	return invoiceNumber, nil
}
