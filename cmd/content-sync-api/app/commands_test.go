package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/versions"
)

// fakeMigrator records the calls made by a migration plan
type fakeMigrator struct {
	err     error
	calls   []string
	steps   []int
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.err
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.err
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = append(f.steps, n)
	return f.err
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }

func (*fakeMigrator) Close() (error, error) { return nil, nil }

var testDB = &config.DatabaseConfig{User: "sync", Host: "db", Port: 5432, Database: "content"}

func TestConfirmFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "y\n", want: true},
		{input: "  YES  \n", want: true},
		{input: "yes", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			got := confirmFrom(strings.NewReader(tt.input), &out, "Continue?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

func TestMigrationPlan_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		plan      migrationPlan
		err       error
		wantCalls []string
		wantSteps []int
		wantErr   string
	}{
		{name: "up all", plan: migrationPlan{direction: migrationUp}, wantCalls: []string{"up"}},
		{name: "down all", plan: migrationPlan{direction: migrationDown}, wantCalls: []string{"down"}},
		{name: "up two", plan: migrationPlan{direction: migrationUp, steps: 2}, wantCalls: []string{"steps"}, wantSteps: []int{2}},
		{name: "down three", plan: migrationPlan{direction: migrationDown, steps: 3}, wantCalls: []string{"steps"}, wantSteps: []int{-3}},
		{name: "no change", plan: migrationPlan{direction: migrationDown}, err: migrate.ErrNoChange, wantCalls: []string{"down"}},
		{
			name:      "failure",
			plan:      migrationPlan{direction: migrationDown, steps: 1},
			err:       errors.New("dirty database"),
			wantCalls: []string{"steps"},
			wantSteps: []int{-1},
			wantErr:   "migrate down: dirty database",
		},
		{name: "too many steps", plan: migrationPlan{direction: migrationUp, steps: 1 << 40}, wantErr: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMigrator{err: tt.err}
			err := tt.plan.apply(m)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, m.calls)
			assert.Equal(t, tt.wantSteps, m.steps)
		})
	}
}

func TestMigrationPlan_Prompt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Apply migrations to sync@db:5432/content?",
		migrationPlan{direction: migrationUp}.prompt(testDB))
	assert.Contains(t, migrationPlan{direction: migrationDown}.prompt(testDB), "Revert ALL migrations")
	assert.Contains(t, migrationPlan{direction: migrationDown, steps: 2}.prompt(testDB), "Revert 2 migration(s)")
}

func TestConfirmPlan(t *testing.T) {
	t.Parallel()

	newCmd := func(input string, yes bool) (*cobra.Command, *bytes.Buffer) {
		cmd := &cobra.Command{}
		cmd.Flags().Bool("yes", yes, "")
		var out bytes.Buffer
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&out)
		return cmd, &out
	}
	down := migrationPlan{direction: migrationDown}

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		t.Parallel()
		cmd, out := newCmd("", true)
		require.NoError(t, confirmPlan(cmd, down, testDB))
		assert.Empty(t, out.String())
	})

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()
		cmd, out := newCmd("y\n", false)
		require.NoError(t, confirmPlan(cmd, down, testDB))
		assert.Contains(t, out.String(), "sync@db:5432/content")
	})

	t.Run("declined", func(t *testing.T) {
		t.Parallel()
		cmd, _ := newCmd("no\n", false)
		require.ErrorIs(t, confirmPlan(cmd, down, testDB), errMigrationDeclined)
	})
}

func TestReportVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    *fakeMigrator
		want string
	}{
		{name: "clean", m: &fakeMigrator{version: 3}, want: "schema version: 3\n"},
		{name: "dirty", m: &fakeMigrator{version: 2, dirty: true}, want: "schema version: 2 (dirty, fix manually before migrating again)\n"},
		{name: "empty schema", m: &fakeMigrator{verErr: migrate.ErrNilVersion}, want: "schema version: none\n"},
		{name: "unreadable", m: &fakeMigrator{verErr: errors.New("connection refused")}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			reportVersion(&out, tt.m)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()

	info := versions.GetVersionInfo()

	var out bytes.Buffer
	require.NoError(t, printVersion(&out, info, true))
	var decoded versions.VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, info, decoded)

	out.Reset()
	require.NoError(t, printVersion(&out, info, false))
	assert.True(t, strings.HasPrefix(out.String(), "content-sync-api "+info.Version))
}

func TestCheckCmd(t *testing.T) {
	t.Parallel()

	run := func(args ...string) (string, error) {
		cmd := newCheckCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		// a nil slice would make cobra fall back to os.Args
		cmd.SetArgs(append([]string{}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	t.Run("bundled sample", func(t *testing.T) {
		t.Parallel()
		out, err := run("--example", "file-git")
		require.NoError(t, err)
		assert.Contains(t, out, "strategy:    git\n")
		assert.Contains(t, out, "github:      example/blog@main\n")
		assert.Contains(t, out, "auto retry:  10m0s\n")
	})

	t.Run("file on disk", func(t *testing.T) {
		t.Parallel()
		out, err := run("--config", "../../../examples/config-dual-redis.yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "strategy:    dual\n")
		assert.Contains(t, out, "runner:      redis\n")
	})

	t.Run("unknown sample", func(t *testing.T) {
		t.Parallel()
		_, err := run("--example", "nope")
		require.ErrorContains(t, err, `unknown example "nope"`)
	})

	t.Run("nothing to check", func(t *testing.T) {
		t.Parallel()
		_, err := run()
		require.ErrorContains(t, err, "file-git")
	})
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	sub := map[string]*cobra.Command{}
	for _, c := range root.Commands() {
		sub[c.Name()] = c
	}
	for _, name := range []string{"serve", "version", "migrate", "check"} {
		require.Contains(t, sub, name)
	}

	var migrations []string
	for _, c := range sub["migrate"].Commands() {
		migrations = append(migrations, c.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "status"}, migrations)

	for _, flag := range []string{"yes", "num-steps", "config"} {
		assert.NotNil(t, sub["migrate"].PersistentFlags().Lookup(flag), flag)
	}
}
