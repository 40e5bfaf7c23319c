package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.1.0"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := SetupLogging(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	code := newApp(cfg).run(os.Args[1:])
	closeLog()
	os.Exit(code)
}

// run dispatches a command line and returns the process exit code.
func (a *app) run(args []string) int {
	if len(args) == 0 {
		args = []string{"journal"}
	}

	command := args[0]
	var err error

	switch command {
	case "food":
		err = a.handleFood(args[1:])
	case "recipe":
		err = a.handleRecipe(args[1:])
	case "journal":
		err = a.handleJournal(args[1:])
	case "eat":
		err = a.handleEat(args[1:])
	case "config":
		err = a.handleConfig(args[1:])
	case "version", "--version", "-v":
		fmt.Fprintf(a.stdout, "nosh version %s\n", version)
	case "help", "--help", "-h":
		printUsage(a.stdout)
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", command)
		printUsage(a.stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `nosh - Food and nutrition journal

USAGE:
    nosh                       # Show today's journal
    nosh <command> [options]

COMMANDS:
    food ls [PATTERN]          List foods
    food show KEY              Show a food's nutrients and servings
    food edit KEY              Create or edit a food in $EDITOR
    food rm KEY                Remove a food
    food search QUERY          Search FoodData Central and save a result
    recipe ls [PATTERN]        List recipes
    recipe show KEY            Show a recipe and its totals
    recipe edit KEY            Create or edit a recipe in $EDITOR
    recipe rm KEY              Remove a recipe
    journal [show] [DATE]      Show the journal for DATE (default: today)
    journal edit [DATE]        Edit the journal for DATE in $EDITOR
    journal ls [PATTERN]       List journal days with totals
    eat FOOD [SERVING]         Add a serving of FOOD to today's journal
    config                     Show current configuration
    version                    Show version information
    help                       Show this help message

SERVINGS:
    A serving is a size with an optional unit. Without a unit it counts
    base servings; with one it must match (or abbreviate) a unit the food
    defines.

      nosh eat oats              # 1 serving
      nosh eat oats 2.5          # 2.5 servings
      nosh eat oats 0.5c         # 0.5 cups
      nosh eat oats 40 g         # 40 grams

EAT OPTIONS:
    -d, --date YYYY-MM-DD      Add to another day's journal

FOOD SEARCH OPTIONS:
    --page N                   Result page (default: 1)
    --key KEY                  Save under KEY instead of a key derived from QUERY
    --force                    Overwrite an existing food

ENVIRONMENT:
    NOSH_DATA_DIR              Data directory (default: $XDG_DATA_HOME/nosh)
    NOSH_CONFIG                Config file (default: $XDG_CONFIG_HOME/nosh/config.yaml)
    NOSH_SEARCH_URL            FoodData Central search endpoint
    NOSH_API_KEY               FoodData Central API key
    NOSH_EDITOR, EDITOR        Editor used by the edit commands
    NOSH_LOG_LEVEL             debug, info, warn or error
    NOSH_LOG_FILE              Also append logs to this file
`)
}
