package delivery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Kind identifies which of the two output documents a file is.
type Kind string

const (
	KindOutline Kind = "outline"
	KindEdited  Kind = "edited"
)

// ErrNotFound is returned when nothing has been published yet.
var ErrNotFound = errors.New("document not published")

// Filename is the download name of the document.
func (k Kind) Filename() string {
	switch k {
	case KindOutline:
		return "book_outline.pdf"
	case KindEdited:
		return "edited_pdf_content.pdf"
	}
	return ""
}

// ParseKind accepts "outline" or "edited".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindOutline, KindEdited:
		return k, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Store keeps each session's rendered documents under root/<session id>/.
// A new publish overwrites the previous file of the same kind.
type Store struct {
	root   string
	logger *logrus.Logger
}

// New creates root if needed.
func New(root string, logger *logrus.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("output dir is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) sessionDir(sessionID string) (string, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.root, sessionID), nil
}

// Path returns where the document of kind lives for the session.
func (s *Store) Path(sessionID string, kind Kind) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	name := kind.Filename()
	if name == "" {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	return filepath.Join(dir, name), nil
}

// Publish writes data to a temp file and renames it into place, so a
// reader never sees a partial document.
func (s *Store) Publish(sessionID string, kind Kind, data []byte) (string, error) {
	path, err := s.Path(sessionID, kind)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+kind.Filename()+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"session": sessionID,
		"kind":    kind,
		"bytes":   len(data),
	}).Debug("document published")
	return path, nil
}

// Open returns the published document. The caller closes it.
func (s *Store) Open(sessionID string, kind Kind) (*os.File, error) {
	path, err := s.Path(sessionID, kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Remove deletes everything published for the session.
func (s *Store) Remove(sessionID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}
