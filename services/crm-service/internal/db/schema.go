package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
	    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	    email TEXT NOT NULL UNIQUE,
	    name TEXT,
	    google_id TEXT,
	    image TEXT,
	    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS people (
	    id BIGSERIAL PRIMARY KEY,
	    user_id UUID REFERENCES users(id) ON DELETE CASCADE,
	    name TEXT NOT NULL,
	    company TEXT,
	    email TEXT,
	    phone TEXT,
	    notes TEXT,
	    follow_up_date DATE,
	    last_contact_date DATE,
	    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_people_created_at ON people(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_people_user_id ON people(user_id);
`

// EnsureSchema creates the users and people tables if missing. When the
// restricted role exists it is granted read and insert on people only.
// It reports whether the grant was applied.
func EnsureSchema(ctx context.Context, conn DBTX, restrictedRole string) (bool, error) {
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		return false, Wrap("create schema", err)
	}

	if restrictedRole == "" {
		return false, nil
	}

	var exists bool
	err := conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)`, restrictedRole).Scan(&exists)
	if err != nil {
		return false, Wrap("look up role", err)
	}
	if !exists {
		return false, nil
	}

	role := pgx.Identifier{restrictedRole}.Sanitize()
	grants := fmt.Sprintf(`
		GRANT SELECT, INSERT ON people TO %[1]s;
		GRANT USAGE ON SEQUENCE people_id_seq TO %[1]s;
	`, role)
	if _, err := conn.ExecContext(ctx, grants); err != nil {
		return false, Wrap("grant privileges", err)
	}

	return true, nil
}
