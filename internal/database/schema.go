package database

// Embedded schemas, keyed by database name. All statements are idempotent
// so Migrate can run on every startup.
var schemas = map[string]string{
	"market": marketSchema,
	"cache":  cacheSchema,
}

// market.db: durable market data and the append-only analyses audit trail.
const marketSchema = `
CREATE TABLE IF NOT EXISTS coins (
    id         TEXT PRIMARY KEY,
    symbol     TEXT NOT NULL,
    name       TEXT NOT NULL,
    sector     TEXT NOT NULL DEFAULT '',
    market_cap REAL NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
    coin_id    TEXT NOT NULL,
    date       TEXT NOT NULL,
    price      REAL NOT NULL,
    volume     REAL NOT NULL DEFAULT 0,
    market_cap REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (coin_id, date)
);

CREATE INDEX IF NOT EXISTS idx_price_history_coin ON price_history(coin_id, date);

CREATE TABLE IF NOT EXISTS onchain_snapshots (
    coin_id TEXT NOT NULL,
    metric  TEXT NOT NULL,
    date    TEXT NOT NULL,
    value   REAL NOT NULL,
    PRIMARY KEY (coin_id, metric, date)
);

-- Append-only: rows are inserted once and never updated or deleted.
CREATE TABLE IF NOT EXISTS analyses (
    id             TEXT PRIMARY KEY,
    coin_id        TEXT NOT NULL,
    recommendation TEXT NOT NULL,
    npv            REAL NOT NULL,
    cagr           REAL NOT NULL,
    data           TEXT NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_coin ON analyses(coin_id, created_at);
`

// cache.db: ephemeral TTL caches for external API client responses.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS coingecko_history (coin TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS coingecko_coin    (coin TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS glassnode_metric  (key  TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS fred_series       (series TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);

CREATE INDEX IF NOT EXISTS idx_coingecko_history_expires ON coingecko_history(expires_at);
CREATE INDEX IF NOT EXISTS idx_coingecko_coin_expires ON coingecko_coin(expires_at);
CREATE INDEX IF NOT EXISTS idx_glassnode_expires ON glassnode_metric(expires_at);
CREATE INDEX IF NOT EXISTS idx_fred_expires ON fred_series(expires_at);
`
