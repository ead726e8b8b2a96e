// Package sink persists sealed utterances to disk as WAV files, independent
// of whether a segment is ultimately transcribed or skipped.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/voicetyped/vad-gateway/internal/audio"
)

// FileSink writes each session's sealed segments under
// <baseDir>/<YYYYMMDD_HHMMSS>_<clientID>/segment_NNNN.wav, where the
// timestamp is the CreatedAt of the first segment saved for that client id.
type FileSink struct {
	baseDir string

	mu   sync.Mutex
	dirs map[string]string
}

// NewFileSink creates a FileSink rooted at baseDir. baseDir is created lazily
// per session, not at construction time.
func NewFileSink(baseDir string) *FileSink {
	return &FileSink{
		baseDir: baseDir,
		dirs:    make(map[string]string),
	}
}

// Save writes seg to <clientID>'s session directory, creating it on first
// use. Safe for concurrent use by multiple sessions; not safe for concurrent
// use by the same clientID (the dispatcher only calls Save from Dispatch,
// which a session calls from its single ready-drain goroutine, so this never
// happens in practice).
func (s *FileSink) Save(clientID string, seg audio.Utterance) error {
	dir, err := s.sessionDir(clientID, seg.CreatedAt)
	if err != nil {
		return fmt.Errorf("segment sink: %w", err)
	}

	name := fmt.Sprintf("segment_%04d.wav", seg.SegmentID)
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, audio.EncodeWAV(seg.PCM), 0o644); err != nil {
		return fmt.Errorf("segment sink: write %s: %w", path, err)
	}
	slog.DebugContext(context.Background(), "saved segment", slog.String("path", path))
	return nil
}

func (s *FileSink) sessionDir(clientID string, connectedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir, ok := s.dirs[clientID]; ok {
		return dir, nil
	}

	name := fmt.Sprintf("%s_%s", connectedAt.Format("20060102_150405"), clientID)
	dir := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	s.dirs[clientID] = dir
	return dir, nil
}

// Forget drops a session's cached directory entry. Call on disconnect; the
// files on disk are left in place.
func (s *FileSink) Forget(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirs, clientID)
}
