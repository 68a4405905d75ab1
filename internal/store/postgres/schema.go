package postgres

// Schema creates the projection table. All statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS contacts (
    id         UUID PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    phone      TEXT NOT NULL,
    email      TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts (last_name, first_name);
`
