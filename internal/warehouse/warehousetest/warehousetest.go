// Package warehousetest seeds in-memory SQLite warehouses for tests.
//
// The SCM fixture has three unique identities:
//   - u-alice (raw ids 1 and 4, profile "Alice"): commits 1, 3 (a merge) and 6
//   - u-bob (raw id 2, profile "Bob"): commits 2 and 5
//   - u-carol (raw id 3, no profile): commit 4
//
// Alice is enrolled in Bitergia during 2012 and in Acme afterwards; Bob is
// enrolled in Acme throughout.
package warehousetest

import (
	"context"
	"testing"

	"github.com/huangsam/tenure/internal/warehouse"
	"github.com/huangsam/tenure/schema"
	"github.com/stretchr/testify/require"
)

// Identity holds the SortingHat tables.
const Identity = `
CREATE TABLE people_uidentities (people_id TEXT NOT NULL, uuid TEXT NOT NULL);
CREATE TABLE profiles (uuid TEXT PRIMARY KEY, name TEXT, email TEXT);
CREATE TABLE organizations (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE enrollments (id INTEGER PRIMARY KEY, uuid TEXT NOT NULL, organization_id INTEGER NOT NULL,
	start DATETIME NOT NULL, "end" DATETIME NOT NULL);

INSERT INTO people_uidentities VALUES ('1', 'u-alice'), ('2', 'u-bob'), ('3', 'u-carol'), ('4', 'u-alice'),
	('alice@example.com', 'u-alice'), ('bob@example.com', 'u-bob'), ('dave@example.com', 'u-dave');
INSERT INTO profiles VALUES ('u-alice', 'Alice', 'alice@example.com'), ('u-bob', 'Bob', 'bob@example.com');
INSERT INTO organizations VALUES (1, 'Bitergia'), (2, 'Acme');
INSERT INTO enrollments VALUES
	(1, 'u-alice', 1, '2012-01-01 00:00:00', '2013-01-01 00:00:00'),
	(2, 'u-alice', 2, '2013-01-01 00:00:00', '2100-01-01 00:00:00'),
	(3, 'u-bob', 2, '1900-01-01 00:00:00', '2100-01-01 00:00:00');
`

// SCM holds CVSAnalY tables.
const SCM = `
CREATE TABLE scmlog (id INTEGER PRIMARY KEY, rev TEXT, committer_id INTEGER, author_id INTEGER,
	date DATETIME, author_date DATETIME, message TEXT);
CREATE TABLE branches (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE actions (id INTEGER PRIMARY KEY, type TEXT, file_id INTEGER, commit_id INTEGER, branch_id INTEGER);

INSERT INTO scmlog VALUES
	(1, 'r1', 1, 1, '2012-01-15 10:00:00', '2012-01-14 09:00:00', 'initial import'),
	(2, 'r2', 1, 2, '2012-03-10 12:00:00', '2012-03-01 08:00:00', 'add parser'),
	(3, 'r3', 1, 4, '2012-03-20 16:30:00', '2012-03-20 16:30:00', 'merge dev'),
	(4, 'r4', 3, 3, '2012-06-05 11:00:00', '2012-06-05 11:00:00', 'fix docs'),
	(5, 'r5', 2, 2, '2013-01-10 09:15:00', '2012-12-24 18:00:00', 'release'),
	(6, 'r6', 1, 1, '2013-02-14 14:00:00', '2013-02-14 14:00:00', 'refactor');
INSERT INTO branches VALUES (1, 'master'), (2, 'dev');
INSERT INTO actions VALUES
	(1, 'A', 10, 1, 1),
	(2, 'M', 10, 2, 1),
	(3, 'M', 11, 4, 2),
	(4, 'A', 12, 5, 2),
	(5, 'M', 10, 6, 1),
	(6, 'M', 11, 6, 1);
`

// ITS holds Bicho tables. Changes are made by raw ids 1 (alice) and 2 (bob).
const ITS = `
CREATE TABLE changes (id INTEGER PRIMARY KEY, issue_id INTEGER, field TEXT, old_value TEXT, new_value TEXT,
	changed_by TEXT, changed_on DATETIME);

INSERT INTO changes VALUES
	(1, 100, 'status', 'open', 'closed', '1', '2012-02-01 10:00:00'),
	(2, 101, 'priority', 'low', 'high', '2', '2012-02-15 10:00:00'),
	(3, 100, 'status', 'closed', 'open', '2', '2012-05-01 10:00:00');
`

// MLS holds MLStats tables. Each message has one sender and a few recipients.
const MLS = `
CREATE TABLE messages (message_id TEXT PRIMARY KEY, arrival_date DATETIME, first_date DATETIME, subject TEXT);
CREATE TABLE messages_people (type_of_recipient TEXT, email_address TEXT, message_id TEXT);

INSERT INTO messages VALUES
	('<m1>', '2012-04-02 08:00:00', '2012-04-01 23:00:00', 'hello'),
	('<m2>', '2012-04-03 08:00:00', '2012-04-03 07:00:00', 'Re: hello'),
	('<m3>', '2012-07-10 08:00:00', '2012-07-10 07:00:00', 'release plan');
INSERT INTO messages_people VALUES
	('From', 'alice@example.com', '<m1>'),
	('To', 'bob@example.com', '<m1>'),
	('From', 'bob@example.com', '<m2>'),
	('To', 'alice@example.com', '<m2>'),
	('Cc', 'dave@example.com', '<m2>'),
	('From', 'alice@example.com', '<m3>');
`

// Open returns an in-memory SQLite warehouse seeded with scripts. It is
// closed when the test ends.
func Open(t testing.TB, scripts ...string) *warehouse.Warehouse {
	t.Helper()
	w, err := warehouse.Open(context.Background(), schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for _, script := range scripts {
		_, err := w.DB().Exec(script)
		require.NoError(t, err)
	}
	return w
}

// OpenAll returns a warehouse with the identity, SCM, ITS and MLS tables.
func OpenAll(t testing.TB) *warehouse.Warehouse {
	t.Helper()
	return Open(t, Identity, SCM, ITS, MLS)
}
