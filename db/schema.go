package db

// Chain schema. Transactions cascade with their containing block so a block
// delete removes its transaction rows in the same statement.
const schema = `
CREATE TABLE IF NOT EXISTS blocks (
	id                     TEXT PRIMARY KEY,
	height                 BIGINT NOT NULL UNIQUE,
	previous_block_id      TEXT,
	timestamp              BIGINT NOT NULL,
	generator_public_key   TEXT NOT NULL,
	block_signature        TEXT,
	height_previous        INTEGER NOT NULL DEFAULT 0,
	height_prevoted        INTEGER NOT NULL DEFAULT 0,
	number_of_transactions INTEGER NOT NULL DEFAULT 0,
	payload_length         INTEGER NOT NULL DEFAULT 0,
	reward                 NUMERIC(78) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id                TEXT PRIMARY KEY,
	block_id          TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	row_index         INTEGER NOT NULL,
	type              SMALLINT NOT NULL,
	sender_public_key TEXT NOT NULL,
	recipient_address TEXT,
	amount            NUMERIC(78) NOT NULL DEFAULT 0,
	fee               NUMERIC(78) NOT NULL DEFAULT 0,
	timestamp         BIGINT NOT NULL,
	signature         TEXT,
	asset             TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_block_id ON transactions(block_id);

CREATE TABLE IF NOT EXISTS accounts (
	address     TEXT PRIMARY KEY,
	public_key  TEXT UNIQUE,
	balance     NUMERIC(78) NOT NULL DEFAULT 0,
	u_balance   NUMERIC(78) NOT NULL DEFAULT 0,
	username    TEXT,
	is_delegate BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS account_votes (
	account_address     TEXT NOT NULL REFERENCES accounts(address),
	delegate_public_key TEXT NOT NULL,
	PRIMARY KEY (account_address, delegate_public_key)
);

CREATE TABLE IF NOT EXISTS round_changes (
	round                BIGINT NOT NULL,
	height               BIGINT NOT NULL,
	generator_public_key TEXT NOT NULL,
	fees                 NUMERIC(78) NOT NULL DEFAULT 0,
	reward               NUMERIC(78) NOT NULL DEFAULT 0,
	PRIMARY KEY (round, height)
);
`
