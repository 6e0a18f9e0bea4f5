package postgres

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	age        INTEGER NOT NULL,
	photo_url  TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS meetings (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	description  TEXT,
	status       TEXT NOT NULL DEFAULT 'active',
	participants JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at   TIMESTAMPTZ NOT NULL,
	start_at     TIMESTAMPTZ NOT NULL,
	finish_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS meetings_user_id_idx ON meetings (user_id);

CREATE TABLE IF NOT EXISTS transcripts (
	meeting_id TEXT PRIMARY KEY REFERENCES meetings (id) ON DELETE CASCADE,
	messages   JSONB NOT NULL DEFAULT '[]'::jsonb,
	summary    TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_idx ON accounts (lower(email));
`
