package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"albumclub/pkg/database"
)

// Exports the club data (albums and reviews) to CSV for backups.
func main() {
	var (
		albumsOut  = flag.String("albums", "data/albums.csv", "output CSV path for albums")
		reviewsOut = flag.String("reviews", "data/reviews.csv", "output CSV path for reviews")
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

	if err := exportAlbums(ctx, db, *albumsOut); err != nil {
		log.Fatalf("export albums failed: %v", err)
	}
	if err := exportReviews(ctx, db, *reviewsOut); err != nil {
		log.Fatalf("export reviews failed: %v", err)
	}

	log.Printf("exported albums to %s and reviews to %s", *albumsOut, *reviewsOut)
}

func exportAlbums(ctx context.Context, db *sql.DB, outPath string) error {
	f, err := createOut(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "artist", "genre", "submitted_by", "made_todays_album"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, artist, genre, submitted_by, made_todays_album
		FROM albums
		ORDER BY created_on, id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, title, artist string
			genre             sql.NullString
			submittedBy       sql.NullString
			selectedOn        sql.NullTime
		)
		if err := rows.Scan(&id, &title, &artist, &genre, &submittedBy, &selectedOn); err != nil {
			return err
		}

		selected := ""
		if selectedOn.Valid {
			selected = selectedOn.Time.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{id, title, artist, genre.String, submittedBy.String, selected}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportReviews(ctx context.Context, db *sql.DB, outPath string) error {
	f, err := createOut(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "album_id", "user_email", "rating", "notes"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT rv.id, rv.album_id, u.email, rv.rating, rv.notes
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		ORDER BY rv.created_on, rv.id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, albumID, email string
			rating             sql.NullString
			notes              sql.NullString
		)
		if err := rows.Scan(&id, &albumID, &email, &rating, &notes); err != nil {
			return err
		}
		if err := w.Write([]string{id, albumID, email, rating.String, notes.String}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func createOut(outPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, err
	}
	return os.Create(outPath)
}
