package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Database stores records as text files under a root directory:
//
//	$root/
//	  food/
//	    oats.txt
//	    banana.txt
//	  recipe/
//	    granola.txt
//	  journal/
//	    2024/
//	      07/
//	        01.txt
//	        02.txt
//
// Nothing is cached; every Load reads and parses the file again.
type Database struct {
	dir string
}

// Listed is one record produced by List.
type Listed[K, T any] struct {
	Key   K
	Value *T
}

// NewDatabase returns a database rooted at dir. The directory is created
// lazily by the first Save.
func NewDatabase(dir string) *Database {
	return &Database{dir: dir}
}

// Dir returns the root directory.
func (db *Database) Dir() string {
	return db.dir
}

// Path returns the file that holds the record of type P under key.
func Path[T any, K any, P record[T, K]](db *Database, key K) (string, error) {
	_, path, err := recordPath[T, K, P](db, key)
	return path, err
}

// recordPath returns the relative and absolute paths of the record under
// key. Keys that do not map back to themselves are rejected, which keeps
// every record file inside its directory.
func recordPath[T any, K any, P record[T, K]](db *Database, key K) (rel, path string, err error) {
	rel = P(new(T)).Path(key)
	if _, err := P(new(T)).Key(rel); err != nil {
		return "", "", err
	}
	return rel, db.path(rel), nil
}

func (db *Database) path(rel string) string {
	return filepath.Join(db.dir, filepath.FromSlash(rel))
}

// Load reads the record stored under key. It returns nil, nil if the record
// does not exist.
func Load[T any, K any, P record[T, K]](db *Database, key K) (*T, error) {
	return load[T, K, P](db, key, nil)
}

// load reads a record on behalf of the records in chain, which are still
// being decoded. Foods it references are resolved through db.
func load[T any, K any, P record[T, K]](db *Database, key K, chain []string) (*T, error) {
	rel, path, err := recordPath[T, K, P](db, key)
	if err != nil {
		return nil, err
	}
	slog.Debug("loading record", "path", path)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	v := new(T)
	resolve := db.resolver(slices.Concat(chain, []string{rel}))
	if err := P(v).Load(bufio.NewReader(file), resolve); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return v, nil
}

// resolver loads foods for a record being decoded, refusing to re-enter
// any food file already in chain.
func (db *Database) resolver(chain []string) Resolver {
	return func(key string) (*Food, error) {
		rel := (*Food)(nil).Path(key)
		if slices.Contains(chain, rel) {
			return nil, &CycleError{Chain: slices.Concat(chain, []string{rel})}
		}
		return load[Food](db, key, chain)
	}
}

// Save writes value under key, creating parent directories as needed and
// replacing any existing record.
func Save[T any, K any, P record[T, K]](db *Database, key K, value *T) error {
	_, path, err := recordPath[T, K, P](db, key)
	if err != nil {
		return err
	}
	slog.Debug("saving record", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	w := bufio.NewWriter(file)
	if err := P(value).Save(w); err != nil {
		file.Close()
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return file.Close()
}

// Remove deletes the record stored under key. It is an error if there is none.
func Remove[T any, K any, P record[T, K]](db *Database, key K) error {
	_, path, err := recordPath[T, K, P](db, key)
	if err != nil {
		return err
	}
	slog.Debug("removing record", "path", path)

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("error removing record: %w", err)
	}
	return nil
}

// List walks every record of type P. If filter is not empty, only records
// whose path (relative to the root) contains it are loaded.
// A record that fails to load is yielded as an error and the walk goes on.
func List[T any, K any, P record[T, K]](db *Database, filter string) iter.Seq2[Listed[K, T], error] {
	return func(yield func(Listed[K, T], error) bool) {
		root := db.path(P(new(T)).Dir())
		slog.Debug("listing records", "dir", root, "filter", filter)

		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipAll
				}
				if !yield(Listed[K, T]{}, err) {
					return fs.SkipAll
				}
				return nil
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			var item Listed[K, T]
			rel, err := filepath.Rel(db.dir, path)
			rel = filepath.ToSlash(rel)
			if err == nil && !strings.Contains(rel, filter) {
				return nil
			}
			if err == nil {
				item.Key, err = P(new(T)).Key(rel)
			}
			if err == nil {
				item.Value, err = load[T, K, P](db, item.Key, nil)
			}
			if err == nil && item.Value == nil {
				// Removed since the directory was read.
				return nil
			}
			if !yield(item, err) {
				return fs.SkipAll
			}
			return nil
		})
	}
}
