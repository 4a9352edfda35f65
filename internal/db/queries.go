package db

import (
	"database/sql"

	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/findings"
)

// UpsertFinding inserts a finding or, when one already exists for the same
// (package, tool, rule, file, line) identity, refreshes its mutable fields.
// This keeps re-importing a result file idempotent.
func UpsertFinding(database *sql.DB, f *findings.Finding) error {
	namespace := sql.NullString{String: f.PackageNamespace, Valid: f.PackageNamespace != ""}
	level := sql.NullString{String: f.Level, Valid: f.Level != ""}

	query := `
		INSERT INTO findings (
			id, package_key, package_type, package_namespace, package_name,
			package_version, tool, rule_id, level, message,
			file_path, start_line, object_path, actor, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(package_key, tool, rule_id, file_path, start_line) DO UPDATE SET
			level = excluded.level,
			message = excluded.message,
			object_path = excluded.object_path,
			actor = excluded.actor,
			updated_at = excluded.updated_at
	`

	_, err := database.Exec(query,
		f.ID, f.PackageKey, f.PackageType, namespace, f.PackageName,
		f.PackageVersion, f.Tool, f.RuleID, level, f.Message,
		f.FilePath, f.StartLine, f.ObjectPath, f.Actor, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetFinding retrieves a finding by its ULID.
func GetFinding(database *sql.DB, id string) (*findings.Finding, error) {
	query := selectFindings + " WHERE id = ?"

	row := database.QueryRow(query, id)
	f, err := scanFinding(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return f, nil
}

// FindingFilter narrows ListFindings. Zero values mean "no filter".
type FindingFilter struct {
	PackageKey string
	Tool       string
	Limit      int
	Offset     int
}

// ListFindings returns findings matching the filter, most recently updated
// first, along with the total matching count.
func ListFindings(database *sql.DB, filter FindingFilter) ([]findings.Finding, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filter.PackageKey != "" {
		where += " AND package_key = ?"
		args = append(args, filter.PackageKey)
	}
	if filter.Tool != "" {
		where += " AND tool = ?"
		args = append(args, filter.Tool)
	}

	var total int
	if err := database.QueryRow("SELECT COUNT(*) FROM findings"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := selectFindings + where + " ORDER BY updated_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := database.Query(query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var results []findings.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		results = append(results, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return results, total, nil
}

// InsertRun records an import batch summary.
func InsertRun(database *sql.DB, r *findings.Run) error {
	query := `
		INSERT INTO import_runs (
			id, target, attempted, imported, skipped, failed,
			actor, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := database.Exec(query,
		r.ID, r.Target, r.Attempted, r.Imported, r.Skipped, r.Failed,
		r.Actor, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListRuns returns the most recent import runs, newest first.
func ListRuns(database *sql.DB, limit int) ([]findings.Run, error) {
	query := `
		SELECT id, target, attempted, imported, skipped, failed,
			actor, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC, id LIMIT ?
	`
	rows, err := database.Query(query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var results []findings.Run
	for rows.Next() {
		var r findings.Run
		if err := rows.Scan(&r.ID, &r.Target, &r.Attempted, &r.Imported, &r.Skipped,
			&r.Failed, &r.Actor, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return results, nil
}

const selectFindings = `
	SELECT id, package_key, package_type, package_namespace, package_name,
		package_version, tool, rule_id, level, message,
		file_path, start_line, object_path, actor, created_at, updated_at
	FROM findings`

// scanner abstracts sql.Row and sql.Rows for scanFinding.
type scanner interface {
	Scan(dest ...any) error
}

func scanFinding(row scanner) (*findings.Finding, error) {
	var f findings.Finding
	var namespace, level sql.NullString
	err := row.Scan(
		&f.ID, &f.PackageKey, &f.PackageType, &namespace, &f.PackageName,
		&f.PackageVersion, &f.Tool, &f.RuleID, &level, &f.Message,
		&f.FilePath, &f.StartLine, &f.ObjectPath, &f.Actor, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.PackageNamespace = namespace.String
	f.Level = level.String
	return &f, nil
}
