package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"albumclub/pkg/database"
	"albumclub/pkg/utils"
)

// Imports the club's albums.csv (columns: Album Title, Artist,
// Submitted By, Genre). Every row becomes an unselected, unrated album;
// the whole file goes in one transaction. "Submitted By" carries a
// display name and is resolved to a user through the reverse name
// lookup, left null when unknown.
func main() {
	var (
		albumsIn = flag.String("albums", "albums.csv", "input CSV path for albums")
	)
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	names := utils.LoadNameLookup()
	n, err := importAlbums(ctx, db, names, *albumsIn)
	if err != nil {
		log.Fatalf("import albums failed: %v", err)
	}

	log.Printf("imported %d albums from %s", n, *albumsIn)
}

func importAlbums(ctx context.Context, db *sql.DB, names *utils.NameLookup, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO albums (id, title, artist, genre, submitted_by, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "album title")
		artist := valueAt(header, row, "artist")
		if title == "" || artist == "" {
			continue
		}

		now := time.Now().UTC()
		if _, err := stmt.ExecContext(
			ctx,
			uuid.NewString(),
			title,
			artist,
			nullString(valueAt(header, row, "genre")),
			resolveSubmitter(ctx, tx, names, valueAt(header, row, "submitted by")),
			now,
			now,
		); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func resolveSubmitter(ctx context.Context, tx *sql.Tx, names *utils.NameLookup, name string) sql.NullString {
	if name == "" {
		return sql.NullString{}
	}
	email, ok := names.EmailFor(name)
	if !ok {
		return sql.NullString{}
	}

	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE LOWER(email) = ?`, strings.ToLower(email)).Scan(&id)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id, Valid: true}
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
