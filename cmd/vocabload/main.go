// Command vocabload bulk-loads a word list and character bond table into the
// vocabulary store. The word file holds one word per line (optionally
// followed by a count); the bond file holds "left right weight" lines. When
// no bond file is given, bond weights are derived from adjacent-character
// counts in the word list itself.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lexiconlabs/resolution-platform/internal/vocab"
	"github.com/lexiconlabs/resolution-platform/pkg/config"
	"github.com/lexiconlabs/resolution-platform/pkg/logger"
	"github.com/lexiconlabs/resolution-platform/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	wordsPath := flag.String("words", "", "word list file (word [count] per line)")
	bondsPath := flag.String("bonds", "", "bond table file (left right weight per line); derived from words when empty")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *wordsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: vocabload -words <file> [-bonds <file>]")
		os.Exit(2)
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	store := vocab.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure vocab schema", "error", err)
		os.Exit(1)
	}

	words, counts, err := readWords(*wordsPath)
	if err != nil {
		slog.Error("failed to read word list", "path", *wordsPath, "error", err)
		os.Exit(1)
	}
	for _, w := range words {
		if err := store.UpsertWord(ctx, w, vocab.DeriveTokenID(w)); err != nil {
			slog.Error("failed to upsert word", "word", w, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("lexicon loaded", "words", len(words))

	bonds := vocab.NewBondTable()
	var pairs int
	if *bondsPath != "" {
		pairs, err = readBonds(*bondsPath, bonds)
		if err != nil {
			slog.Error("failed to read bond table", "path", *bondsPath, "error", err)
			os.Exit(1)
		}
	} else {
		pairs = deriveBonds(words, counts, bonds)
		slog.Info("bond weights derived from word adjacency counts")
	}
	written := 0
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			w := bonds.Weight(byte(a), byte(b))
			if w == 0 {
				continue
			}
			if err := store.UpsertBond(ctx, byte(a), byte(b), w); err != nil {
				slog.Error("failed to upsert bond", "left", a, "right", b, "error", err)
				os.Exit(1)
			}
			written++
		}
	}
	slog.Info("bond table loaded", "pairs_read", pairs, "pairs_written", written)
}

// readWords parses the word list: one lowercase word per line, optionally
// followed by an occurrence count (default 1).
func readWords(path string) ([]string, map[string]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var words []string
	counts := make(map[string]uint32)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		word := strings.ToLower(fields[0])
		count := uint32(1)
		if len(fields) > 1 {
			if n, err := strconv.ParseUint(fields[1], 10, 32); err == nil {
				count = uint32(n)
			}
		}
		if _, dup := counts[word]; !dup {
			words = append(words, word)
		}
		counts[word] += count
	}
	return words, counts, scanner.Err()
}

// readBonds parses explicit "left right weight" lines; left and right are
// single characters.
func readBonds(path string, table *vocab.BondTable) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pairs := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields[0]) != 1 || len(fields[1]) != 1 {
			continue
		}
		weight, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			continue
		}
		table.Set(fields[0][0], fields[1][0], uint32(weight))
		pairs++
	}
	return pairs, scanner.Err()
}

// deriveBonds accumulates adjacency weights from the word list: every
// consecutive character pair contributes the word's occurrence count.
func deriveBonds(words []string, counts map[string]uint32, table *vocab.BondTable) int {
	pairs := 0
	for _, w := range words {
		c := counts[w]
		for i := 0; i+1 < len(w); i++ {
			prev := table.Weight(w[i], w[i+1])
			if prev == 0 {
				pairs++
			}
			table.Set(w[i], w[i+1], prev+c)
		}
	}
	return pairs
}
