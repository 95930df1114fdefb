package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// Postgres implements Client over the hosted service's Postgres schema.
type Postgres struct {
	db          *sqlx.DB
	disp        *dispatcher
	jwtSecret   []byte
	blobBaseURL string
}

// ConnectPostgres opens the database, applies the schema and returns a
// ready client.
func ConnectPostgres(dsn string, jwtSecret []byte, blobBaseURL string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Postgres{
		db:          db,
		disp:        newDispatcher(),
		jwtSecret:   jwtSecret,
		blobBaseURL: strings.TrimRight(blobBaseURL, "/"),
	}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            title TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'queue',
            agent_id TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
            conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            profile_id TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member',
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(conversation_id, profile_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            receiver_id TEXT NOT NULL DEFAULT '',
            body TEXT NOT NULL,
            kind TEXT NOT NULL DEFAULT 'text',
            file_name TEXT NOT NULL DEFAULT '',
            file_size BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS messages_conversation_created_idx
            ON messages (conversation_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS profiles (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS companies (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            whatsapp_number TEXT NOT NULL DEFAULT '',
            whatsapp_token TEXT NOT NULL DEFAULT '',
            logo_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            kind TEXT NOT NULL DEFAULT 'message',
            message TEXT NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS notifications_user_created_idx
            ON notifications (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS blobs (
            bucket TEXT NOT NULL,
            name TEXT NOT NULL,
            content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
            data BYTEA NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(bucket, name)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// InsertRow stores a row, assigning a UUID id when the caller left it to
// the service. A uniqueness violation maps to ErrConflict.
func (p *Postgres) InsertRow(ctx context.Context, table string, row Row) (Row, error) {
	row = cloneRow(row)
	if tableHasID(table) && row.String("id") == "" {
		row["id"] = uuid.NewString()
	}

	cols := sortedColumns(row)
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	stored := Row{}
	if err := p.db.QueryRowxContext(ctx, query, args...).MapScan(stored); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrConflict
		}
		return nil, err
	}
	stored = normalizeRow(stored)

	p.disp.dispatch(table, stored)
	return stored, nil
}

// SelectRows reads rows matching filter.
func (p *Postgres) SelectRows(ctx context.Context, table string, filter Filter, orderBy string, asc bool, limit int) ([]Row, error) {
	query := "SELECT * FROM " + table
	where, args := whereClause(filter, 1)
	query += where
	if orderBy != "" {
		query += " ORDER BY " + orderBy
		if asc {
			query += " ASC"
		} else {
			query += " DESC"
		}
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row := Row{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		result = append(result, normalizeRow(row))
	}
	return result, rows.Err()
}

// UpdateRow patches matching rows and returns the first updated one.
func (p *Postgres) UpdateRow(ctx context.Context, table string, filter Filter, patch Row) (Row, error) {
	cols := sortedColumns(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filter))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, patch[col])
	}

	where, whereArgs := whereClause(filter, len(cols)+1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", table, strings.Join(sets, ", "), where)

	updated := Row{}
	if err := p.db.QueryRowxContext(ctx, query, args...).MapScan(updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, err
	}
	return normalizeRow(updated), nil
}

// DeleteRow removes the rows matching filter.
func (p *Postgres) DeleteRow(ctx context.Context, table string, filter Filter) error {
	where, args := whereClause(filter, 1)
	_, err := p.db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	return err
}

// Subscribe registers a handler for row inserts made through this client.
func (p *Postgres) Subscribe(table string, filter Filter, onInsert func(Row)) Subscription {
	return p.disp.subscribe(table, filter, onInsert)
}

// UploadBlob upserts the blob and returns its public URL.
func (p *Postgres) UploadBlob(ctx context.Context, bucket, name string, data []byte, contentType string) (string, error) {
	_, err := p.db.ExecContext(ctx, `INSERT INTO blobs (bucket, name, content_type, data) VALUES ($1, $2, $3, $4)
        ON CONFLICT (bucket, name) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		bucket, name, contentType, data)
	if err != nil {
		return "", err
	}
	return p.blobBaseURL + "/" + bucket + "/" + name, nil
}

// GetBlob reads a stored blob.
func (p *Postgres) GetBlob(ctx context.Context, bucket, name string) ([]byte, string, error) {
	var blob struct {
		Data        []byte `db:"data"`
		ContentType string `db:"content_type"`
	}
	err := p.db.GetContext(ctx, &blob, `SELECT data, content_type FROM blobs WHERE bucket=$1 AND name=$2`, bucket, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNoRows
	}
	if err != nil {
		return nil, "", err
	}
	return blob.Data, blob.ContentType, nil
}

// GetSession resolves a bearer token.
func (p *Postgres) GetSession(_ context.Context, token string) (Session, error) {
	return sessionFromToken(p.jwtSecret, token)
}

// Close releases the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func whereClause(filter Filter, firstArg int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(filter))
	for col := range filter {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = $%d", col, firstArg+i)
		args[i] = filter[col]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedColumns(row Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func cloneRow(row Row) Row {
	clone := make(Row, len(row))
	for col, val := range row {
		clone[col] = val
	}
	return clone
}

// normalizeRow converts driver []byte values into strings so Row accessors
// behave the same across implementations.
func normalizeRow(row Row) Row {
	for col, val := range row {
		if b, ok := val.([]byte); ok {
			row[col] = string(b)
		}
	}
	return row
}

func tableHasID(table string) bool {
	switch table {
	case TableConversations, TableMessages, TableProfiles, TableCompanies, TableNotifications:
		return true
	}
	return false
}
