package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	LogFileName  = "overlay_debug.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
	maxTextLen   = 200
)

// Setup routes the standard logger to LogFileName with size-based rotation
// (10MB, 3 archives). When disabled, logs are discarded.
func Setup(enableFileLogging bool) {
	SetupAt(enableFileLogging, LogFileName)
}

// SetupAt is Setup with an explicit log file path.
func SetupAt(enableFileLogging bool, path string) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return
	}
	w, err := OpenRotating(path, maxSizeBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	log.SetOutput(w)
}

// RotatingWriter appends to a file and shifts it to .1, .2, .3 once it would
// grow past its limit.
type RotatingWriter struct {
	mu    sync.Mutex
	path  string
	limit int64
	f     *os.File
}

func OpenRotating(path string, limit int64) (*RotatingWriter, error) {
	rotate(path, limit)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	return &RotatingWriter{path: path, limit: limit, f: f}, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > w.limit {
		_ = w.f.Close()
		rotate(w.path, 0)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// rotate shifts path into its archives when it is larger than limit.
func rotate(path string, limit int64) {
	st, err := os.Stat(path)
	if err != nil || st.Size() <= limit {
		return
	}
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return path + "." + strconv.Itoa(n) }

// RedactKey masks a credential, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}

// Sanitize prepares user or model text for a single log line.
func Sanitize(s string) string {
	truncated := false
	if r := []rune(s); len(r) > maxTextLen {
		s = string(r[:maxTextLen])
		truncated = true
	}
	s = strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(s)
	if truncated {
		s += "..."
	}
	return s
}
