package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// app carries what the command handlers share.
type app struct {
	cfg      *Config
	db       *Database
	searcher Searcher
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	today    func() time.Time
}

func newApp(cfg *Config) *app {
	return &app{
		cfg:      cfg,
		db:       NewDatabase(cfg.DataDir),
		searcher: NewFDCClient(cfg),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		today:    Today,
	}
}

// handleFood implements the 'food' command
func (a *app) handleFood(args []string) error {
	sub, rest := subcommand(args)
	switch sub {
	case "ls", "list":
		return a.foodList(rest)
	case "show":
		key, err := oneKey("food show", rest)
		if err != nil {
			return err
		}
		return a.foodShow(key)
	case "rm", "remove":
		key, err := oneKey("food rm", rest)
		if err != nil {
			return err
		}
		if err := Remove[Food](a.db, key); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Removed food '%s'\n", key)
		return nil
	case "edit":
		key, err := oneKey("food edit", rest)
		if err != nil {
			return err
		}
		return editRecord[Food](a, key)
	case "search":
		return a.foodSearch(rest)
	default:
		return fmt.Errorf("unknown food command %q (use: ls, show, rm, edit, search)", sub)
	}
}

func (a *app) foodList(args []string) error {
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "KEY\tNAME\t"+nutrientHeader+"\tSERVINGS")
	for item, err := range List[Food, string](a.db, pattern(args)) {
		if err != nil {
			fmt.Fprintf(a.stderr, "Warning: %v\n", err)
			continue
		}
		n, err := item.Value.Nutrients()
		if err != nil {
			fmt.Fprintf(a.stderr, "Warning: %s: %v\n", item.Key, err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Key, item.Value.Name, nutrientCells(n), formatServings(item.Value.Servings, ", "))
	}
	return tw.Flush()
}

func (a *app) foodShow(key string) error {
	food, err := Load[Food](a.db, key)
	if err != nil {
		return err
	}
	if food == nil {
		return &FoodNotFoundError{Key: key}
	}
	return displayFood(a.stdout, key, food)
}

func (a *app) foodSearch(args []string) error {
	flags := flag.NewFlagSet("food search", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	var (
		page  int
		key   string
		force bool
	)
	flags.IntVar(&page, "page", 1, "Result page to show")
	flags.StringVar(&key, "key", "", "Key to save the chosen food under (default: derived from the query)")
	flags.BoolVar(&force, "force", false, "Overwrite an existing food")
	if err := flags.Parse(args); err != nil {
		return err
	}

	query := strings.Join(flags.Args(), " ")
	if query == "" {
		return errors.New("usage: nosh food search [-page N] [-key KEY] QUERY")
	}
	if key == "" {
		key = keyFromText(query)
	}

	existing, err := Load[Food](a.db, key)
	if err != nil {
		return err
	}
	if existing != nil && !force {
		return fmt.Errorf("food '%s' already exists (use -force to overwrite)", key)
	}

	foods, err := a.searcher.Search(context.Background(), query, page)
	if err != nil {
		return err
	}
	if len(foods) == 0 {
		fmt.Fprintln(a.stdout, "No foods found.")
		return nil
	}

	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "#\tNAME\t"+nutrientHeader+"\tSERVINGS")
	for i, f := range foods {
		n, _ := f.Nutrients()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, f.Name, nutrientCells(n), formatServings(f.Servings, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if a.interactive() {
		fmt.Fprintf(a.stdout, "Select a food to save as '%s' (1-%d, empty to cancel): ", key, len(foods))
	}
	input, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		fmt.Fprintln(a.stdout, "Cancelled.")
		return nil
	}
	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(foods) {
		return fmt.Errorf("invalid selection %q", input)
	}

	if err := Save(a.db, key, &foods[choice-1]); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "✅ Saved '%s' as food '%s'\n", foods[choice-1].Name, key)
	return nil
}

// interactive reports whether stdin is a terminal.
func (a *app) interactive() bool {
	f, ok := a.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// handleRecipe implements the 'recipe' command
func (a *app) handleRecipe(args []string) error {
	sub, rest := subcommand(args)
	switch sub {
	case "ls", "list":
		tw := newTable(a.stdout)
		fmt.Fprintln(tw, "KEY\tNAME\t"+nutrientHeader)
		for item, err := range List[Recipe, string](a.db, pattern(rest)) {
			if err != nil {
				fmt.Fprintf(a.stderr, "Warning: %v\n", err)
				continue
			}
			n, err := item.Value.Nutrients()
			if err != nil {
				fmt.Fprintf(a.stderr, "Warning: %s: %v\n", item.Key, err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Key, item.Value.Name, nutrientCells(n))
		}
		return tw.Flush()
	case "show":
		key, err := oneKey("recipe show", rest)
		if err != nil {
			return err
		}
		recipe, err := LoadRecipe(a.db, key)
		if err != nil {
			return err
		}
		food := recipe.Food()
		if food.Name == "" {
			food.Name = key
		}
		return displayFood(a.stdout, key, &food)
	case "rm", "remove":
		key, err := oneKey("recipe rm", rest)
		if err != nil {
			return err
		}
		if err := Remove[Recipe](a.db, key); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Removed recipe '%s'\n", key)
		return nil
	case "edit":
		key, err := oneKey("recipe edit", rest)
		if err != nil {
			return err
		}
		return editRecord[Recipe](a, key)
	default:
		return fmt.Errorf("unknown recipe command %q (use: ls, show, rm, edit)", sub)
	}
}

// handleJournal implements the 'journal' command
func (a *app) handleJournal(args []string) error {
	sub, rest := subcommand(args)
	switch sub {
	case "", "show":
		date, err := a.dateArg(rest)
		if err != nil {
			return err
		}
		return a.showJournal(date)
	case "edit":
		date, err := a.dateArg(rest)
		if err != nil {
			return err
		}
		return editRecord[Journal](a, date)
	case "ls", "list":
		tw := newTable(a.stdout)
		fmt.Fprintln(tw, "DATE\tFOODS\t"+nutrientHeader)
		for item, err := range List[Journal, time.Time](a.db, pattern(rest)) {
			if err != nil {
				fmt.Fprintf(a.stderr, "Warning: %v\n", err)
				continue
			}
			n, err := item.Value.Nutrients()
			if err != nil {
				fmt.Fprintf(a.stderr, "Warning: %s: %v\n", item.Key.Format(time.DateOnly), err)
				continue
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", item.Key.Format(time.DateOnly), len(*item.Value), nutrientCells(n))
		}
		return tw.Flush()
	default:
		// "nosh journal 2024-07-02" is short for "nosh journal show 2024-07-02".
		if date, err := ParseDate(sub); err == nil && len(rest) == 0 {
			return a.showJournal(date)
		}
		return fmt.Errorf("unknown journal command %q (use: show, edit, ls, or a YYYY-MM-DD date)", sub)
	}
}

func (a *app) showJournal(date time.Time) error {
	journal, err := LoadJournal(a.db, date)
	if err != nil {
		return err
	}
	return a.displayJournal(date, journal)
}

func (a *app) displayJournal(date time.Time, journal Journal) error {
	fmt.Fprintln(a.stdout, rule)
	fmt.Fprintf(a.stdout, "  %s\n", date.Format("Monday, January 2, 2006"))
	fmt.Fprintln(a.stdout, rule)
	fmt.Fprintln(a.stdout)

	if len(journal) == 0 {
		fmt.Fprintln(a.stdout, "Nothing eaten yet.")
		return nil
	}
	return displayEntries(a.stdout, "Eaten:", journal)
}

// handleEat implements the 'eat' command
func (a *app) handleEat(args []string) error {
	flags := flag.NewFlagSet("eat", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	var dateText string
	flags.StringVar(&dateText, "date", "", "Journal date (YYYY-MM-DD, default: today)")
	flags.StringVar(&dateText, "d", "", "Journal date (YYYY-MM-DD, default: today)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 {
		return errors.New("usage: nosh eat [-date YYYY-MM-DD] FOOD [SERVING]")
	}
	key := rest[0]

	serving := DefaultServing
	if len(rest) > 1 {
		var err error
		serving, err = ParseServing(strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
	}

	date := a.today()
	if dateText != "" {
		var err error
		date, err = ParseDate(dateText)
		if err != nil {
			return err
		}
	}

	food, err := Load[Food](a.db, key)
	if err != nil {
		return err
	}
	if food == nil {
		return &FoodNotFoundError{Key: key}
	}

	journal, err := LoadJournal(a.db, date)
	if err != nil {
		return err
	}
	if err := journal.Add(key, serving, *food); err != nil {
		return err
	}
	if err := Save(a.db, date, &journal); err != nil {
		return err
	}

	n, err := food.Serve(serving)
	if err != nil {
		return err
	}
	total, err := journal.Nutrients()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "✅ Ate %s of '%s' (%.0f kcal)\n", serving, food.Name, n.KCal)
	fmt.Fprintf(a.stdout, "📊 %s: %.0f kcal, %.1fg carb, %.1fg fat, %.1fg protein\n",
		date.Format(time.DateOnly), total.KCal, total.Carb, total.Fat, total.Protein)
	return nil
}

// handleConfig implements the 'config' command
func (a *app) handleConfig(args []string) error {
	cfg := a.cfg
	w := a.stdout

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  NOSH CONFIGURATION")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file:      %s\n", ConfigPath())
	fmt.Fprintf(w, "Data directory:   %s\n", cfg.DataDir)
	fmt.Fprintf(w, "Search URL:       %s\n", cfg.SearchURL)
	fmt.Fprintf(w, "Search page size: %d\n", cfg.SearchPageSize)
	fmt.Fprintf(w, "Editor:           %s\n", cfg.Editor)
	fmt.Fprintf(w, "Log level:        %s\n", cfg.LogLevel)
	if cfg.LogFile != "" {
		fmt.Fprintf(w, "Log file:         %s\n", cfg.LogFile)
	}
	fmt.Fprintln(w)

	if _, err := os.Stat(cfg.DataDir); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "⚠️  Data directory does not exist yet: %s\n", cfg.DataDir)
		fmt.Fprintln(w, "It is created when the first food or journal entry is saved.")
		fmt.Fprintln(w, "To use another directory, set NOSH_DATA_DIR.")
		return nil
	}

	foods := 0
	for _, err := range List[Food, string](a.db, "") {
		if err == nil {
			foods++
		}
	}
	fmt.Fprintf(w, "✅ Found %d foods\n", foods)
	return nil
}

// editRecord opens the record in the user's editor and saves it back once
// it loads cleanly. On failure the edited text is left in a temp file.
func editRecord[T any, K any, P record[T, K]](a *app, key K) error {
	rel, path, err := recordPath[T, K, P](a.db, key)
	if err != nil {
		return err
	}

	original, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	tmp, err := os.CreateTemp("", "nosh-*.txt")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(original)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("error writing %s: %w", tmpPath, err)
	}

	editor := strings.Fields(a.cfg.Editor)
	if len(editor) == 0 {
		return errors.New("no editor configured (set EDITOR or NOSH_EDITOR)")
	}
	cmd := exec.Command(editor[0], append(editor[1:], tmpPath)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = a.stdin, a.stdout, a.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor failed, changes kept in %s: %w", tmpPath, err)
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return err
	}
	if bytes.Equal(edited, original) {
		os.Remove(tmpPath)
		fmt.Fprintln(a.stdout, "No changes.")
		return nil
	}

	v := new(T)
	if err := P(v).Load(bytes.NewReader(edited), a.db.resolver([]string{rel})); err != nil {
		return fmt.Errorf("invalid %s, changes kept in %s: %w", P(v).Dir(), tmpPath, err)
	}
	if err := Save[T, K, P](a.db, key, v); err != nil {
		return err
	}
	os.Remove(tmpPath)
	fmt.Fprintf(a.stdout, "✅ Saved %s\n", rel)
	return nil
}

func (a *app) dateArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return a.today(), nil
	}
	return ParseDate(args[0])
}

func subcommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}
	return args[0], args[1:]
}

func oneKey(usage string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("usage: nosh %s KEY", usage)
	}
	return args[0], nil
}

func pattern(args []string) string {
	return strings.Join(args, " ")
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// keyFromText turns free text into a food key: "Potato, raw" -> "potato_raw".
func keyFromText(text string) string {
	return strings.Trim(nonKeyChars.ReplaceAllString(strings.ToLower(text), "_"), "_")
}
