package catalog

import (
	"database/sql"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	_ "modernc.org/sqlite"
)

const managerFileName = "manager.db"

const sqlCreateManager = `CREATE TABLE IF NOT EXISTS MANAGER (
	ID INTEGER PRIMARY KEY AUTOINCREMENT,
	OWNER INTEGER
)`

// AcquireSlot claims a job slot in the manager relation under dir,
// per spec.md §4.1. It is retry-safe under contention: a concurrent
// process may steal a null-owner row before this process updates it, in
// which case the claim loop retries.
//
// The advisory whole-file lock on manager.db serializes claim/release
// across concurrent compiler processes sharing dir; the UPDATE ... WHERE
// OWNER IS NULL race check defends against any slip in that serialization.
func AcquireSlot(dir string) (int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, wrapIO("create catalog dir", err)
	}
	path := filepath.Join(dir, managerFileName)

	lockFD, err := unix.Open(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, wrapIO("open manager lock file", err)
	}
	defer unix.Close(lockFD)
	if err := unix.Flock(lockFD, unix.LOCK_EX); err != nil {
		return 0, wrapIO("lock manager file", err)
	}
	defer unix.Flock(lockFD, unix.LOCK_UN)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, wrapIO("open manager database", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqlCreateManager); err != nil {
		return 0, wrapIO("create manager table", err)
	}

	pid := int64(os.Getpid())

	// Re-entrant: this process may already own a row (e.g. re-running
	// acquire after a partial failure).
	var slot int64
	err = db.QueryRow(`SELECT ID FROM MANAGER WHERE OWNER = ?`, pid).Scan(&slot)
	if err == nil {
		return slot, nil
	}
	if err != sql.ErrNoRows {
		return 0, wrapIO("query manager table", err)
	}

	for {
		err = db.QueryRow(`SELECT ID FROM MANAGER WHERE OWNER IS NULL LIMIT 1`).Scan(&slot)
		if err == sql.ErrNoRows {
			res, err := db.Exec(`INSERT INTO MANAGER (OWNER) VALUES (NULL)`)
			if err != nil {
				return 0, wrapIO("insert manager row", err)
			}
			slot, err = res.LastInsertId()
			if err != nil {
				return 0, wrapIO("read inserted manager row id", err)
			}
			continue
		}
		if err != nil {
			return 0, wrapIO("query manager table", err)
		}

		res, err := db.Exec(`UPDATE MANAGER SET OWNER = ? WHERE ID = ? AND OWNER IS NULL`, pid, slot)
		if err != nil {
			return 0, wrapIO("claim manager row", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, wrapIO("read claim result", err)
		}
		if n == 1 {
			return slot, nil
		}
		// Someone else claimed it first; retry the claim loop.
	}
}

// AllSlots returns every slot ID ever allocated under dir, regardless of
// current ownership, in ascending order. cmd/trec-release and cmd/trecctl
// use it to enumerate the debuginfo<slot>.db files a build produced
// without the caller having to track slot numbers itself.
func AllSlots(dir string) ([]int64, error) {
	path := filepath.Join(dir, managerFileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapIO("open manager database", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqlCreateManager); err != nil {
		return nil, wrapIO("create manager table", err)
	}

	rows, err := db.Query(`SELECT ID FROM MANAGER ORDER BY ID`)
	if err != nil {
		return nil, wrapIO("query manager table", err)
	}
	defer rows.Close()

	var slots []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapIO("scan manager row", err)
		}
		slots = append(slots, id)
	}
	return slots, rows.Err()
}

// ReleaseSlot sets the owner of slot back to null, per spec.md §4.1.
func ReleaseSlot(dir string, slot int64) error {
	path := filepath.Join(dir, managerFileName)

	lockFD, err := unix.Open(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return wrapIO("open manager lock file", err)
	}
	defer unix.Close(lockFD)
	if err := unix.Flock(lockFD, unix.LOCK_EX); err != nil {
		return wrapIO("lock manager file", err)
	}
	defer unix.Flock(lockFD, unix.LOCK_UN)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return wrapIO("open manager database", err)
	}
	defer db.Close()

	if _, err := db.Exec(`UPDATE MANAGER SET OWNER = NULL WHERE ID = ?`, slot); err != nil {
		return wrapIO("release manager row", err)
	}
	return nil
}
