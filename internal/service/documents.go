package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/agendadocs/agenda-server/internal/models"
	"github.com/agendadocs/agenda-server/internal/repository"
	"github.com/agendadocs/agenda-server/internal/utils"
)

// MIME types accepted as PDF. An empty or generic-binary type is also
// accepted when the filename extension is .pdf.
var pdfMimeTypes = map[string]struct{}{
	"application/pdf":     {},
	"application/x-pdf":   {},
	"application/acrobat": {},
	"application/vnd.pdf": {},
	"text/pdf":            {},
}

var genericMimeTypes = map[string]struct{}{
	"":                         {},
	"application/octet-stream": {},
	"binary/octet-stream":      {},
}

// IncomingFile is one file of an upload batch, decoupled from the transport's
// multipart types.
type IncomingFile struct {
	OriginalName string
	ContentType  string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// DocumentService manages per-tab PDF files: transactional batch ingestion,
// deletion, and retrieval with path-recovery fallback.
type DocumentService struct {
	repo       repository.Repository
	uploadsDir string
	logger     *utils.Logger
	collator   *collate.Collator
}

// NewDocumentService creates a new DocumentService rooted at uploadsDir.
func NewDocumentService(repo repository.Repository, uploadsDir string, logger *utils.Logger) *DocumentService {
	return &DocumentService{
		repo:       repo,
		uploadsDir: uploadsDir,
		logger:     logger,
		collator:   collate.New(language.Spanish, collate.IgnoreCase),
	}
}

// ListByTab returns the tab's documents with repaired original names, sorted
// by locale-aware case-insensitive collation, ties broken by id.
func (s *DocumentService) ListByTab(ctx context.Context, tabID int64) ([]models.Document, *models.Tab, error) {
	tab, err := s.repo.GetTabByID(ctx, tabID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting tab: %w", err)
	}
	if tab == nil {
		return nil, nil, models.NewNotFoundError("tab")
	}

	docs, err := s.repo.ListDocumentsByTab(ctx, tabID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing documents: %w", err)
	}

	for i := range docs {
		docs[i].OriginalName = RepairOriginalName(docs[i].OriginalName)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if cmp := s.collator.CompareString(docs[i].OriginalName, docs[j].OriginalName); cmp != 0 {
			return cmp < 0
		}
		return docs[i].ID < docs[j].ID
	})

	if docs == nil {
		docs = []models.Document{}
	}
	return docs, tab, nil
}

// Upload validates the whole batch, writes each file to disk, and inserts all
// rows in a single transaction. A hash failure is logged but never aborts the
// upload; a disk write failure aborts the whole batch.
func (s *DocumentService) Upload(ctx context.Context, tabID int64, userID int64, files []IncomingFile) ([]models.Document, *models.Tab, error) {
	tab, err := s.repo.GetTabByID(ctx, tabID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting tab: %w", err)
	}
	if tab == nil {
		return nil, nil, models.NewNotFoundError("tab")
	}

	if len(files) == 0 {
		return nil, nil, models.NewValidationError("no files provided")
	}
	for _, file := range files {
		if !AcceptsPDF(file.ContentType, file.OriginalName) {
			return nil, nil, models.NewValidationError(
				"only PDF files are allowed, rejected %q (%s)", file.OriginalName, file.ContentType)
		}
	}

	tabDir := filepath.Join(s.uploadsDir, fmt.Sprintf("tab-%d", tabID))
	if err := os.MkdirAll(tabDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("error creating upload directory: %w", err)
	}

	var written []string
	cleanup := func() {
		for _, path := range written {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("could not remove partial upload %s: %v", path, err)
			}
		}
	}

	docs := make([]*models.Document, 0, len(files))
	for _, file := range files {
		filename := generatedFilename(file.OriginalName)
		path := filepath.Join(tabDir, filename)

		size, err := s.writeFile(file, path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("error storing %q: %w", file.OriginalName, err)
		}
		written = append(written, path)

		var hash *string
		if digest, err := hashFile(path); err != nil {
			s.logger.Warn("could not hash %q: %v", file.OriginalName, err)
		} else {
			hash = &digest
		}

		var mime *string
		if ct := strings.TrimSpace(file.ContentType); ct != "" {
			mime = &ct
		}

		docs = append(docs, &models.Document{
			TabID:        tabID,
			Filename:     filename,
			OriginalName: RepairOriginalName(file.OriginalName),
			FilePath:     path,
			FileSize:     size,
			MimeType:     mime,
			FileHash:     hash,
			UploadedBy:   userID,
		})
	}

	if err := s.repo.InsertDocuments(ctx, docs); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error inserting documents: %w", err)
	}

	created := make([]models.Document, len(docs))
	for i, doc := range docs {
		created[i] = *doc
	}
	return created, tab, nil
}

// Delete removes the document row after a best-effort unlink of the physical
// file. The row delete is authoritative; a dangling file is an acceptable,
// recoverable inconsistency.
func (s *DocumentService) Delete(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.repo.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting document: %w", err)
	}
	if doc == nil {
		return nil, models.NewNotFoundError("document")
	}

	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove file for document %d: %v", doc.ID, err)
	}

	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return nil, fmt.Errorf("error deleting document: %w", err)
	}

	return doc, nil
}

// ResolveFile finds the on-disk path serving (tabID, filename), preferring
// the stored path and falling back to the conventional layout. When the
// fallback wins, the corrected path is persisted back onto the row.
func (s *DocumentService) ResolveFile(ctx context.Context, tabID int64, filename string) (string, error) {
	safeFilename := filepath.Base(filename)

	doc, err := s.repo.GetDocumentByTabAndFilename(ctx, tabID, safeFilename)
	if err != nil {
		return "", fmt.Errorf("error getting document: %w", err)
	}

	var candidates []string
	if doc != nil && strings.TrimSpace(doc.FilePath) != "" {
		candidates = append(candidates, doc.FilePath)
	}
	candidates = append(candidates,
		filepath.Join(s.uploadsDir, fmt.Sprintf("tab-%d", tabID), safeFilename))

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if doc != nil && doc.FilePath != candidate {
			if err := s.repo.UpdateDocumentPath(ctx, doc.ID, candidate); err != nil {
				s.logger.Warn("could not persist recovered path for document %d: %v", doc.ID, err)
			}
		}
		return candidate, nil
	}

	return "", models.NewNotFoundError("file")
}

// AcceptsPDF implements the PDF acceptance policy: a recognized PDF-family
// MIME type, or an empty/generic-binary type with a .pdf extension.
func AcceptsPDF(contentType, filename string) bool {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}

	if _, ok := pdfMimeTypes[mime]; ok {
		return true
	}
	if _, generic := genericMimeTypes[mime]; generic {
		return strings.EqualFold(filepath.Ext(filename), ".pdf")
	}
	return false
}

// RepairOriginalName normalizes a user-supplied filename to NFC and attempts
// to reverse the classic mojibake of UTF-8 bytes decoded once as a
// single-byte Western charset ("PlaneaciÃ³n" → "Planeación"). The repair is
// accepted only when it introduces no replacement characters; otherwise the
// input is kept untouched.
func RepairOriginalName(name string) string {
	normalized := norm.NFC.String(name)

	if !strings.ContainsAny(normalized, "ÃÂâ") {
		return normalized
	}

	// Re-encode to Latin-1 bytes; if any rune falls outside Latin-1 the
	// string cannot be the product of that mis-decoding.
	encoded, err := charmap.ISO8859_1.NewEncoder().String(normalized)
	if err != nil {
		return normalized
	}

	if !utf8.ValidString(encoded) || strings.ContainsRune(encoded, utf8.RuneError) {
		return normalized
	}

	return norm.NFC.String(encoded)
}

func generatedFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("document-%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}

func (s *DocumentService) writeFile(file IncomingFile, path string) (int64, error) {
	src, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return size, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
