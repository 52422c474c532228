package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/dialogue-chunker/internal/chunk"
	"github.com/Zuo-Peng/dialogue-chunker/internal/scan"
	"github.com/google/uuid"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Stale   int // namespaces whose chunk files no longer match their stats
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d stale=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Stale, s.Pruned, s.Errors)
}

// IndexRun records a finished run and the contents of its chunk files.
func IndexRun(db *DB, st chunk.Stats) error {
	info, err := os.Stat(filepath.Join(st.OutputDirectory, chunk.StatsFile))
	if err != nil {
		return fmt.Errorf("stat run stats: %w", err)
	}
	return indexNamespace(db, st, info.ModTime().Unix(), info.Size())
}

// IndexAll brings the ledger in line with the namespaces under outputRoot:
// changed runs are re-indexed and runs whose namespace disappeared are pruned.
func IndexAll(db *DB, outputRoot string) (Stats, error) {
	var stats Stats

	dirs, err := scan.Namespaces(outputRoot)
	if err != nil && !os.IsNotExist(err) {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(dirs)

	seen := make(map[string]struct{})
	for _, dir := range dirs {
		key := namespaceKey(dir)
		seen[key] = struct{}{}

		info, err := os.Stat(filepath.Join(dir, chunk.StatsFile))
		if err != nil {
			stats.Errors++
			continue
		}
		files, newest, err := chunkFiles(dir)
		if err != nil {
			stats.Errors++
			continue
		}
		newer := newest.After(info.ModTime())
		needs, err := needsUpdate(db, key, files, info.ModTime().Unix(), info.Size())
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs && !newer {
			stats.Skipped++
			continue
		}

		st, err := chunk.ReadStats(dir)
		if err != nil {
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: read %s: %v\n", dir, err)
			continue
		}
		st.OutputDirectory = dir

		// A failed re-run clears or rewrites chunk files but leaves the
		// previous run's stats behind.
		if newer || len(files) != st.ChunkCount {
			if err := db.DeleteNamespace(key); err != nil {
				stats.Errors++
				continue
			}
			stats.Stale++
			continue
		}
		if err := indexNamespace(db, *st, info.ModTime().Unix(), info.Size()); err != nil {
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: index %s: %v\n", dir, err)
			continue
		}
		stats.Updated++
	}

	pruned, err := pruneNamespaces(db, namespaceKey(outputRoot), seen)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func namespaceKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// chunkFiles lists the chunk files in dir and the latest modification time
// among them.
func chunkFiles(dir string) ([]string, time.Time, error) {
	files, err := chunk.ListFiles(dir)
	if err != nil {
		return nil, time.Time{}, err
	}
	var newest time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, time.Time{}, err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}
	return files, newest, nil
}

// needsUpdate reports whether the recorded run differs from the stats file or
// from the chunk files on disk.
func needsUpdate(db *DB, namespace string, files []string, mtime, size int64) (bool, error) {
	run, err := db.GetRun(namespace)
	if err != nil {
		return false, err
	}
	if run == nil {
		return true, nil
	}
	if run.StatsMtime != mtime || run.StatsSize != size {
		return true, nil
	}

	recorded, err := db.GetChunks(namespace)
	if err != nil {
		return false, err
	}
	if len(recorded) != len(files) {
		return true, nil
	}
	for i, c := range recorded {
		if filepath.Base(c.FilePath) != filepath.Base(files[i]) {
			return true, nil
		}
	}
	return false, nil
}

func indexNamespace(db *DB, st chunk.Stats, mtime, size int64) error {
	key := namespaceKey(st.OutputDirectory)
	files, err := chunk.ListFiles(st.OutputDirectory)
	if err != nil {
		return err
	}

	if err := db.DeleteNamespace(key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		uuid.NewString(),
		st.InputFile,
		st.Mode,
		st.TotalEntries,
		st.TotalCharacters,
		st.ChunkCount,
		st.AverageChunkSize,
		time.Now().UTC().Format(time.RFC3339Nano),
		mtime,
		size,
	)
	if err != nil {
		return err
	}

	chunkStmt, err := tx.Prepare(
		`INSERT INTO chunks (namespace, chunk_number, session_id, entry_count, file_path)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	entryStmt, err := tx.Prepare(
		`INSERT INTO entries (namespace, chunk_number, entry_index, text) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	for _, path := range files {
		f, err := chunk.ReadFile(path)
		if err != nil {
			return err
		}
		md := f.Metadata
		filePath := filepath.Join(key, filepath.Base(path))
		if _, err := chunkStmt.Exec(key, md.ChunkNumber, md.SessionID, md.EntryCount, filePath); err != nil {
			return err
		}
		for i, e := range f.Entries {
			text := EntryText(e)
			if text == "" {
				continue
			}
			if _, err := entryStmt.Exec(key, md.ChunkNumber, i, text); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// pruneNamespaces removes runs recorded under root that were not seen on disk.
func pruneNamespaces(db *DB, root string, seen map[string]struct{}) (int, error) {
	all, err := db.Namespaces()
	if err != nil {
		return 0, err
	}

	prefix := root + string(filepath.Separator)
	pruned := 0
	for key := range all {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		if err := db.DeleteNamespace(key); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
