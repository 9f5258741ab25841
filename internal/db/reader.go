package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/capfei/crawler/internal/entry"
	"github.com/capfei/crawler/internal/pathutil"
)

// GetHarvest retrieves harvest metadata.
func GetHarvest(db *sql.DB) (*entry.Harvest, error) {
	var h entry.Harvest
	var startTime, endTime int64
	var releaseDate sql.NullString

	err := db.QueryRow(`
		SELECT harvest_id, root_path, start_time, COALESCE(end_time, 0), file_count, dir_count, total_size, error_count, release_date, status
		FROM harvest_meta WHERE id = 1
	`).Scan(&h.ID, &h.RootPath, &startTime, &endTime, &h.FileCount, &h.DirCount, &h.TotalSize, &h.ErrorCount, &releaseDate, &h.Status)

	if err != nil {
		return nil, err
	}

	h.StartTime = time.Unix(startTime, 0)
	if endTime > 0 {
		h.EndTime = time.Unix(endTime, 0)
	}
	if releaseDate.Valid && releaseDate.String != "" {
		if t, err := time.Parse("2006-01-02", releaseDate.String); err == nil {
			h.ReleaseDate = &t
		}
	}

	return &h, nil
}

// ListFiles returns harvested records whose canonical path starts with
// prefix, ordered by sortBy. An empty prefix lists the whole fileset.
func ListFiles(db *sql.DB, prefix, sortBy string, limit int) ([]entry.FileRecord, error) {
	orderClause := "path ASC"
	switch sortBy {
	case "size":
		orderClause = "size DESC, path ASC"
	case "mtime", "date":
		orderClause = "mtime DESC, path ASC"
	case "name":
		orderClause = "name ASC"
	}

	query := fmt.Sprintf(`
		SELECT path, name, kind, size, mtime
		FROM files
		WHERE path LIKE ? ESCAPE '\'
		ORDER BY %s
		LIMIT ?
	`, orderClause)

	// LIKE treats % and _ as wildcards; escape them so a literal
	// prefix like "pkg_info/" does not over-match.
	p := strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(pathutil.Normalize(prefix))

	rows, err := db.Query(query, p+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []entry.FileRecord
	for rows.Next() {
		var r entry.FileRecord
		var mtime int64
		if err := rows.Scan(&r.Path, &r.Name, &r.Kind, &r.Size, &mtime); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		r.ModTime = time.Unix(mtime, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountKind returns how many records of the given kind were harvested.
func CountKind(db *sql.DB, kind entry.Kind) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM files WHERE kind = ?`, kind).Scan(&n)
	return n, err
}
