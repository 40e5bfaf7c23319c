package main

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Data is implemented by every type the Database can store.
// K is the type that identifies a record: a string for foods and recipes,
// a date for journals.
type Data[K any] interface {
	// Dir is the top-level directory holding records of this type.
	Dir() string

	// Path returns the slash-separated path of the record for key,
	// relative to the database root. It starts with Dir and has an extension.
	Path(key K) string

	// Key is the inverse of Path.
	Key(path string) (K, error)

	// Load replaces the receiver with the record read from r. Composite
	// records look up the foods they reference with resolve.
	Load(r io.Reader, resolve Resolver) error

	// Save writes the record to w in the form Load reads.
	Save(w io.Writer) error
}

// record is satisfied by *T when *T implements Data[K].
type record[T any, K any] interface {
	*T
	Data[K]
}

// Resolver looks up a food by key. It returns nil, nil if there is no such food.
type Resolver func(key string) (*Food, error)

// FoodNotFoundError is returned when a record references a food that does not exist.
type FoodNotFoundError struct {
	Key string
}

func (e *FoodNotFoundError) Error() string {
	return fmt.Sprintf("food not found: %s", e.Key)
}

// CycleError is returned when a food is, directly or through other foods,
// an ingredient of itself. Chain lists the food files from the outermost.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "ingredient cycle: " + strings.Join(e.Chain, " -> ")
}

// DecodeError reports a malformed line in a record.
type DecodeError struct {
	Line int
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InvalidKeyError is returned for a key that cannot name a record.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Key, e.Reason)
}

// checkKey reports whether key can name a food or recipe file and be written
// on a "key = serving" line.
func checkKey(key string) error {
	var reason string
	switch {
	case key == "":
		reason = "empty"
	case strings.ContainsAny(key, `/\`):
		reason = "contains a path separator"
	case strings.Contains(key, ".."):
		reason = `contains ".."`
	case strings.HasPrefix(key, "."), strings.HasPrefix(key, "#"):
		reason = "starts with . or #"
	case strings.Contains(key, "="):
		reason = `contains "="`
	case strings.TrimSpace(key) != key:
		reason = "has surrounding whitespace"
	case strings.ContainsFunc(key, unicode.IsControl):
		reason = "contains a control character"
	default:
		return nil
	}
	return &InvalidKeyError{Key: key, Reason: reason}
}

// resolveFood calls resolve and turns a missing food into an error.
func resolveFood(resolve Resolver, key string) (Food, error) {
	if resolve == nil {
		return Food{}, &FoodNotFoundError{Key: key}
	}
	food, err := resolve(key)
	if err != nil {
		return Food{}, err
	}
	if food == nil {
		return Food{}, &FoodNotFoundError{Key: key}
	}
	return *food, nil
}

// namedPath builds dir/key.txt, the layout of string-keyed records.
func namedPath(dir, key string) string {
	return dir + "/" + key + ".txt"
}

// namedKey is the inverse of namedPath.
func namedKey(dir, path string) (string, error) {
	key, ok := strings.CutPrefix(path, dir+"/")
	if ok {
		key, ok = strings.CutSuffix(key, ".txt")
	}
	if !ok {
		return "", fmt.Errorf("not a %s record path: %s", dir, path)
	}
	if err := checkKey(key); err != nil {
		return "", err
	}
	return key, nil
}
