// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meriter/meriter/internal/config"
	"github.com/meriter/meriter/pkg/errutil"
)

type fakeMigrator struct {
	version uint
	dirty   bool
	latest  uint
	calls   []string
	upErr   error
	closed  bool
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	if f.upErr != nil {
		return f.upErr
	}
	f.version = f.latest
	return nil
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	f.version = 0
	return nil
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.version = uint(int(f.version) + n)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, nil }

func (f *fakeMigrator) Pending() ([]uint, error) {
	var out []uint
	for v := f.version + 1; v <= f.latest; v++ {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func migratorDeps(m *fakeMigrator, gotURL *string) *Deps {
	return &Deps{NewMigrator: func(url string) (Migrator, error) {
		*gotURL = url
		return m, nil
	}}
}

const testDatabaseURL = "postgres://meriter@localhost/meriter"

func TestMigrate_Up(t *testing.T) {
	m := &fakeMigrator{latest: 2}
	var url string

	out, _, err := execute(t, migratorDeps(m, &url), "--database-url", testDatabaseURL, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, testDatabaseURL, url)
	assert.Equal(t, []string{"up"}, m.calls)
	assert.Contains(t, out, "Schema version: 2")
	assert.True(t, m.closed)
}

func TestMigrate_UpFailure(t *testing.T) {
	m := &fakeMigrator{latest: 2, upErr: errors.New("syntax error")}
	var url string

	_, _, err := execute(t, migratorDeps(m, &url), "--database-url", testDatabaseURL, "migrate", "up")
	require.ErrorContains(t, err, "syntax error")
	assert.True(t, m.closed)
}

func TestMigrate_Down(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCalls []string
		wantOut   string
	}{
		{"latest only", []string{"migrate", "down"}, []string{"steps"}, "Schema version: 1"},
		{"all", []string{"migrate", "down", "--all"}, []string{"down"}, "Schema version: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMigrator{version: 2, latest: 2}
			var url string

			out, _, err := execute(t, migratorDeps(m, &url), append([]string{"--database-url", testDatabaseURL}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, m.calls)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestMigrate_Status(t *testing.T) {
	m := &fakeMigrator{version: 1, latest: 2, dirty: true}
	var url string

	out, _, err := execute(t, migratorDeps(m, &url), "--database-url", testDatabaseURL, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 1 (dirty)")
	assert.Contains(t, out, "pending: 000002")
	assert.Empty(t, m.calls)
}

func TestMigrate_StatusUpToDate(t *testing.T) {
	m := &fakeMigrator{version: 2, latest: 2}
	var url string

	out, _, err := execute(t, migratorDeps(m, &url), "--database-url", testDatabaseURL, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No pending migrations")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	_, _, err := execute(t, nil, "migrate", "up")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, config.ErrCodeInvalid)
}
