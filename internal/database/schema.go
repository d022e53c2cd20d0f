package database

const schema = `
DO $$ BEGIN
	CREATE TYPE subscription_type AS ENUM ('free', 'premium');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

DO $$ BEGIN
	CREATE TYPE payment_plan AS ENUM ('monthly', 'yearly');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

DO $$ BEGIN
	CREATE TYPE payment_status AS ENUM ('pending', 'completed', 'failed');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

DO $$ BEGIN
	CREATE TYPE ai_request_type AS ENUM ('flashcard_generation', 'quiz_generation');
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;

CREATE TABLE IF NOT EXISTS users (
	id                   BIGSERIAL PRIMARY KEY,
	email                VARCHAR(255) UNIQUE NOT NULL,
	password             VARCHAR(255) NOT NULL,
	subscription_type    subscription_type NOT NULL DEFAULT 'free',
	subscription_expires TIMESTAMPTZ NULL,
	ai_requests_used     INT NOT NULL DEFAULT 0 CHECK (ai_requests_used >= 0),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS flashcards (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	deck_name  VARCHAR(255) NOT NULL DEFAULT 'General',
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);

CREATE INDEX IF NOT EXISTS idx_flashcards_user_created ON flashcards (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS payments (
	id                BIGSERIAL PRIMARY KEY,
	user_id           BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	amount            NUMERIC(10,2) NOT NULL,
	currency          VARCHAR(3) NOT NULL DEFAULT 'KES',
	subscription_type payment_plan NOT NULL,
	payment_reference VARCHAR(255) UNIQUE NOT NULL,
	gateway_reference VARCHAR(255) NULL,
	status            payment_status NOT NULL DEFAULT 'pending',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ai_requests (
	id           BIGSERIAL PRIMARY KEY,
	user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	request_type ai_request_type NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
