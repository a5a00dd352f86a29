// Package vocab provides the vocabulary system-of-record (PostgreSQL), the
// layered token-lookup cache, and the minting path for words the resolution
// engine reports unknown.
package vocab

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/lexiconlabs/resolution-platform/pkg/errors"
	"github.com/lexiconlabs/resolution-platform/pkg/postgres"
)

// Store is the PostgreSQL-backed vocabulary: the lexicon table maps words to
// token ids, the bonds table holds character adjacency weights. Words are
// stored lowercased; token ids are content-derived so minting is idempotent.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore wraps the given database client.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "vocab-store"),
	}
}

// EnsureSchema creates the lexicon and bonds tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lexicon (
			word TEXT PRIMARY KEY,
			token_id TEXT NOT NULL UNIQUE,
			minted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bonds (
			left_ch SMALLINT NOT NULL,
			right_ch SMALLINT NOT NULL,
			weight BIGINT NOT NULL,
			PRIMARY KEY (left_ch, right_ch)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring vocab schema: %w", err)
		}
	}
	return nil
}

// ForEachWord iterates every (word, tokenID) pair in deterministic word
// order. Used only while building the tier assembly.
func (s *Store) ForEachWord(ctx context.Context, fn func(word, tokenID string) error) error {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT word, token_id FROM lexicon ORDER BY word`)
	if err != nil {
		return fmt.Errorf("querying lexicon: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var word, tokenID string
		if err := rows.Scan(&word, &tokenID); err != nil {
			return fmt.Errorf("scanning lexicon row: %w", err)
		}
		if err := fn(word, tokenID); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadBondTable reads the full bonds table into memory.
func (s *Store) LoadBondTable(ctx context.Context) (*BondTable, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT left_ch, right_ch, weight FROM bonds`)
	if err != nil {
		return nil, fmt.Errorf("querying bonds: %w", err)
	}
	defer rows.Close()
	table := NewBondTable()
	count := 0
	for rows.Next() {
		var left, right int16
		var weight int64
		if err := rows.Scan(&left, &right, &weight); err != nil {
			return nil, fmt.Errorf("scanning bond row: %w", err)
		}
		table.Set(byte(left), byte(right), uint32(weight))
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Info("bond table loaded", "pairs", count)
	return table, nil
}

// LookupToken returns the token id for a word, or ErrWordNotFound.
func (s *Store) LookupToken(ctx context.Context, word string) (string, error) {
	var tokenID string
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT token_id FROM lexicon WHERE word = $1`, normalizeWord(word),
	).Scan(&tokenID)
	if err == sql.ErrNoRows {
		return "", apperrors.ErrWordNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up token for %q: %w", word, err)
	}
	return tokenID, nil
}

// MintToken inserts the word with a freshly derived token id and returns it.
// Concurrent mints of the same word converge on one row because the token id
// is derived from the word itself.
func (s *Store) MintToken(ctx context.Context, word string) (string, error) {
	word = normalizeWord(word)
	if word == "" {
		return "", apperrors.ErrInvalidInput
	}
	tokenID := DeriveTokenID(word)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lexicon (word, token_id, minted) VALUES ($1, $2, TRUE)
			 ON CONFLICT (word) DO NOTHING`, word, tokenID)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("minting token for %q: %w", word, err)
	}
	// The conflict path means another writer won; the stored id is
	// identical by derivation either way.
	return tokenID, nil
}

// UpsertWord writes a (word, tokenID) pair, used by the bulk loader.
func (s *Store) UpsertWord(ctx context.Context, word, tokenID string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO lexicon (word, token_id) VALUES ($1, $2)
		 ON CONFLICT (word) DO UPDATE SET token_id = EXCLUDED.token_id`,
		normalizeWord(word), tokenID)
	if err != nil {
		return fmt.Errorf("upserting word %q: %w", word, err)
	}
	return nil
}

// UpsertBond writes one adjacency weight, used by the bulk loader.
func (s *Store) UpsertBond(ctx context.Context, left, right byte, weight uint32) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO bonds (left_ch, right_ch, weight) VALUES ($1, $2, $3)
		 ON CONFLICT (left_ch, right_ch) DO UPDATE SET weight = EXCLUDED.weight`,
		int16(left), int16(right), int64(weight))
	if err != nil {
		return fmt.Errorf("upserting bond (%d,%d): %w", left, right, err)
	}
	return nil
}

// WordIterator binds a context to the store so it satisfies the tier
// assembly's context-free vocabulary iteration interface.
type WordIterator struct {
	ctx   context.Context
	store *Store
}

// Iterator returns a WordIterator bound to ctx.
func (s *Store) Iterator(ctx context.Context) WordIterator {
	return WordIterator{ctx: ctx, store: s}
}

// ForEachWord iterates the lexicon under the bound context.
func (it WordIterator) ForEachWord(fn func(word, tokenID string) error) error {
	return it.store.ForEachWord(it.ctx, fn)
}

// DeriveTokenID computes the content-derived token id for a word.
func DeriveTokenID(word string) string {
	sum := sha256.Sum256([]byte(word))
	return fmt.Sprintf("t%x", sum[:8])
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
