// This program performs administrative tasks against the history kept by
// the oracle. The oracle must be stopped since the database is locked while
// it runs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alex-kampa/realitycheck/app/tooling/admin/commands"
	"github.com/alex-kampa/realitycheck/foundation/logger"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer/pebble"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args    conf.Args
		Indexer struct {
			Path string `conf:"default:zblock/history"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "reality check oracle admin",
		},
	}

	const prefix = "ORACLE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	store, err := pebble.Open(cfg.Indexer.Path)
	if err != nil {
		return fmt.Errorf("opening indexer: %w", err)
	}

	idx, err := indexer.New(store, func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("loading indexer: %w", err)
	}
	defer idx.Close()

	return processCommands(cfg.Args, idx)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, idx *indexer.Indexer) error {
	switch args.Num(0) {
	case "questions":
		if err := commands.Questions(idx); err != nil {
			return fmt.Errorf("listing questions: %w", err)
		}

	case "history":
		if err := commands.History(args.Num(1), idx); err != nil && !errors.Is(err, commands.ErrHelp) {
			return fmt.Errorf("getting history: %w", err)
		}

	default:
		fmt.Println("questions: list the questions with history")
		fmt.Println("history <question-id>: print the records and replay of a question")
		fmt.Println("provide a command to get more help.")
	}

	return nil
}
