// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlitedir

// Schema creates the users table. Identifier is the primary key; role is
// stored but never used to scope a fetch.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    identifier     TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    email          TEXT NOT NULL DEFAULT '',
    role           TEXT NOT NULL,
    active         INTEGER NOT NULL DEFAULT 1,
    birth_date     TEXT NOT NULL DEFAULT '',
    phone          TEXT NOT NULL DEFAULT '',
    address        TEXT NOT NULL DEFAULT '',
    registration   TEXT NOT NULL DEFAULT '',
    linked_student TEXT NOT NULL DEFAULT '',
    linked_parent  TEXT NOT NULL DEFAULT '',
    expertise_area TEXT NOT NULL DEFAULT '',
    academic_title TEXT NOT NULL DEFAULT '',
    seq            INTEGER NOT NULL,  -- insertion order, FetchAll sorts by it
    updated_at     INTEGER NOT NULL   -- Unix timestamp
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
CREATE INDEX IF NOT EXISTS idx_users_seq ON users(seq);
`

const userColumns = `identifier, name, email, role, active, birth_date, phone, address,
    registration, linked_student, linked_parent, expertise_area, academic_title`
