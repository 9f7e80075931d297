// Package testdb provides database helpers for store and service tests.
//
// OpenSQLite gives every test its own migrated SQLite database file, so the
// store test suite always runs. GetTestDBWithT connects to PostgreSQL and
// skips the test when DATABASE_URL (or SCRY_TEST_DB_URL) is not set; those
// tests are built with the integration tag.
//
// WithTx runs a test body inside a transaction that is rolled back when the
// body returns, so tests against a shared database do not see each other's
// rows:
//
//	func TestMyFeature(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        schedules := postgres.NewPostgresScheduleStore(tx, nil)
//	        ...
//	    })
//	}
package testdb
