package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// tempPrefix matches the names TempStore.Store creates.
const tempPrefix = "scribe-"

// Sweeper removes temp uploads that outlived their request, e.g. after a
// crash between Store and Release. Only files with the TempStore prefix are
// touched; the directory may be shared with other programs.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSweeper creates a sweeper for store's directory. maxAge <= 0 disables it.
func NewSweeper(store *TempStore, maxAge time.Duration, log zerolog.Logger) *Sweeper {
	interval := maxAge / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Sweeper{
		dir:      store.Dir(),
		maxAge:   maxAge,
		interval: interval,
		log:      log.With().Str("component", "temp-sweeper").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	if s.maxAge <= 0 {
		close(s.done)
		return
	}
	go s.loop()
}

// Stop halts the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Sweeper) loop() {
	defer close(s.done)

	// Run once on startup to clear leftovers from a previous process
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.Sweep(now)
		case <-s.stop:
			return
		}
	}
}

// Sweep removes prefixed files last modified before now-maxAge and returns
// how many were deleted.
func (s *Sweeper) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn().Err(err).Str("dir", s.dir).Msg("temp sweep: read dir failed")
		return 0
	}

	cutoff := now.Add(-s.maxAge)
	var removed int
	var freed int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
			freed += info.Size()
		}
	}

	if removed > 0 {
		s.log.Info().
			Int("removed", removed).
			Str("freed", humanizeBytes(freed)).
			Msg("temp sweep complete")
	}
	return removed
}

func humanizeBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
