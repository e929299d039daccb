package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs table: one row per page the override engine was applied to
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_url TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

    stylesheet_count INTEGER DEFAULT 0,
    rules_collected INTEGER DEFAULT 0,
    rules_emitted INTEGER DEFAULT 0,
    inline_fixed INTEGER DEFAULT 0,

    status TEXT NOT NULL DEFAULT 'success',  -- success, fetch_error, parse_error, save_error
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_page_url ON runs(page_url);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- CSS fetches: fallback fetches performed while processing a run
CREATE TABLE IF NOT EXISTS css_fetches (
    fetch_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    css_url TEXT NOT NULL,
    status TEXT NOT NULL,                    -- success, error
    size_bytes INTEGER DEFAULT 0,
    content_hash TEXT,
    error_message TEXT,
    fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_css_fetches_run ON css_fetches(run_id);
`
