// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/pkg/errutil"
)

// fakeMigrate drives the Migrator without a database.
type fakeMigrate struct {
	upErr          error
	downErr        error
	version        uint
	dirty          bool
	versionErr     error
	forceErr       error
	forcedTo       int
	closeSourceErr error
	closeDbErr     error
}

func (f *fakeMigrate) Up() error                    { return f.upErr }
func (f *fakeMigrate) Down() error                  { return f.downErr }
func (f *fakeMigrate) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }
func (f *fakeMigrate) Force(v int) error            { f.forcedTo = v; return f.forceErr }
func (f *fakeMigrate) Close() (error, error)        { return f.closeSourceErr, f.closeDbErr }

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://h/db", migrateURL("postgres://h/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}

func TestNewMigrator_BadURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/gateward")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")

	// The postgresql scheme must be recognized; the failure is the missing
	// host, not an unknown driver.
	_, err = NewMigrator("postgresql://localhost:1/gateward")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unknown driver")
}

func TestMigrator_Up(t *testing.T) {
	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Up())
	require.NoError(t, (&Migrator{m: &fakeMigrate{upErr: migrate.ErrNoChange}}).Up(),
		"nothing to apply is not an error")

	err := (&Migrator{m: &fakeMigrate{upErr: errors.New("database locked")}}).Up()
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
}

func TestMigrator_Down(t *testing.T) {
	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Down())
	require.NoError(t, (&Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}).Down())

	err := (&Migrator{m: &fakeMigrate{downErr: errors.New("constraint violation")}}).Down()
	errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
}

func TestMigrator_Version(t *testing.T) {
	t.Run("fresh database reports zero", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Zero(t, version)
		assert.False(t, dirty)
	})

	t.Run("dirty state passes through", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 2, dirty: true}}
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
		assert.True(t, dirty)
	})

	t.Run("failure is coded", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("boom")}}
		_, _, err := m.Version()
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Force(t *testing.T) {
	fake := &fakeMigrate{}
	m := &Migrator{m: fake}

	require.NoError(t, m.Force(2))
	assert.Equal(t, 2, fake.forcedTo)

	err := m.Force(-1)
	errutil.AssertErrorCode(t, err, "INVALID_VERSION")

	m = &Migrator{m: &fakeMigrate{forceErr: errors.New("boom")}}
	err = m.Force(1)
	errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
	errutil.AssertErrorContext(t, err, "version", 1)
}

func TestMigrator_Close(t *testing.T) {
	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Close())

	err := (&Migrator{m: &fakeMigrate{closeSourceErr: errors.New("src")}}).Close()
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "source")

	err = (&Migrator{m: &fakeMigrate{closeDbErr: errors.New("db")}}).Close()
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	errutil.AssertErrorContext(t, err, "component", "database")

	err = (&Migrator{m: &fakeMigrate{
		closeSourceErr: errors.New("src"),
		closeDbErr:     errors.New("db"),
	}}).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")
}

// The pending/applied split runs against the real embedded schema: version 1
// creates accounts, version 2 the account link rows.
func TestMigrator_PendingAndApplied(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2}, pending)

		applied, err := m.AppliedMigrations()
		require.NoError(t, err)
		assert.Nil(t, applied)
	})

	t.Run("accounts applied, links pending", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 1}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Equal(t, []uint{2}, pending)

		applied, err := m.AppliedMigrations()
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, applied)
	})

	t.Run("fully migrated", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 2}}
		pending, err := m.PendingMigrations()
		require.NoError(t, err)
		assert.Empty(t, pending)

		applied, err := m.AppliedMigrations()
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2}, applied)
	})
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_accounts", name)

	name, err = MigrationName(2)
	require.NoError(t, err)
	assert.Equal(t, "000002_account_links", name)

	name, err = MigrationName(99)
	require.NoError(t, err)
	assert.Empty(t, name, "unknown version is not an error")
}
