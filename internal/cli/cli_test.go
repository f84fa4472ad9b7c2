package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminPassword = "runreward2024\n"

type env struct {
	t   *testing.T
	dir string
	db  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{t: t, dir: dir, db: filepath.Join(dir, "runreward.db")}
}

func (e *env) args(extra ...string) []string {
	return append([]string{
		"--env-file", "",
		"--storage", "sqlite",
		"--sqlite-path", e.db,
		"--mirror", "sqlite",
		"--mirror-sqlite-path", filepath.Join(e.dir, "mirror.db"),
		"--log-level", "error",
		"--secret-key", "cli-test-secret",
	}, extra...)
}

func (e *env) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), e.args(args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (e *env) mustRun(stdin string, args ...string) string {
	e.t.Helper()
	out, err := e.run(stdin, args...)
	require.NoError(e.t, err, out)
	return out
}

const aliceSignup = "Alice\nMartin\nalice@x.com\nPassw0rd!\nPassw0rd!\n1 rue de la Paix\nParis\n75002\n1990-01-01\nfemme\n38\n"

func (e *env) signupAlice() {
	e.t.Helper()
	out := e.mustRun(aliceSignup, "account", "signup")
	require.Contains(e.t, out, "Welcome Alice")
}

// firstColumn returns the first field of the first data row of a table.
func firstColumn(t *testing.T, table string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(table), "\n")
	require.GreaterOrEqual(t, len(lines), 2, table)
	return strings.Fields(lines[1])[0]
}

func rows(table string) int {
	return len(strings.Split(strings.TrimSpace(table), "\n")) - 1
}

func TestCourses_List(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("", "courses", "list")
	assert.Equal(t, 6, rows(out))
	assert.Contains(t, out, "Marathon de Paris")

	out = e.mustRun("", "courses", "list", "--type", "trail")
	assert.Equal(t, 2, rows(out))

	out = e.mustRun("", "courses", "list", "-q", "GENÈVE")
	assert.Equal(t, 1, rows(out))
	assert.Contains(t, out, "Generali Genève Marathon")

	out = e.mustRun("", "courses", "list", "--department", "75")
	assert.Equal(t, 1, rows(out))
}

func TestCourses_ShowAndNear(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("", "courses", "show", "2")
	assert.Contains(t, out, "Trail des Vosges (#2)")
	assert.Contains(t, out, "emergencyContact")

	_, err := e.run("", "courses", "show", "99")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.run("", "courses", "show", "abc")
	require.ErrorIs(t, err, common.ErrorValidation)

	out = e.mustRun("", "courses", "near", "--lat", "45.764", "--lng", "4.8357", "--radius", "200")
	assert.Equal(t, 3, rows(out))
	assert.Equal(t, "3", firstColumn(t, out))
}

func TestCourses_AdminManagement(t *testing.T) {
	e := newEnv(t)

	_, err := e.run("wrong\n", "courses", "add", "--name", "Nouvelle")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	out := e.mustRun(adminPassword, "courses", "add", "--name", "Foulées du Lac", "--type", "trail", "--max-participants", "40")
	assert.Contains(t, out, "Added course 7: Foulées du Lac")

	out = e.mustRun("", "courses", "show", "7")
	assert.Contains(t, out, "/images/foulees-du-lac.jpg")
	assert.Contains(t, out, "Trail")
	assert.Contains(t, out, "0/40")

	out = e.mustRun(adminPassword, "courses", "update", "7", "--location", "Annecy")
	assert.Contains(t, out, "Updated course 7")
	assert.Contains(t, e.mustRun("", "courses", "show", "7"), "Annecy")

	e.mustRun(adminPassword, "courses", "delete", "7")
	_, err = e.run(adminPassword, "courses", "delete", "7")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccount_SignupLoginLogout(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	out := e.mustRun("", "account", "whoami")
	assert.Contains(t, out, "Alice Martin <alice@x.com>")
	assert.Contains(t, out, "pending")

	e.mustRun("", "account", "logout")
	_, err := e.run("", "account", "whoami")
	require.ErrorIs(t, err, errNotSignedIn)

	_, err = e.run("nope\n", "account", "login", "--email", "alice@x.com")
	require.Error(t, err)

	out = e.mustRun("Passw0rd!\n", "account", "login", "-e", "ALICE@x.com")
	assert.Contains(t, out, "Signed in as Alice Martin")
}

func TestAccount_SignupRejections(t *testing.T) {
	e := newEnv(t)

	_, err := e.run("A\nMartin\nnot-an-email\nweak\nother\n", "account", "signup")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, err.Error(), "Email invalide")
	assert.Contains(t, err.Error(), "Les mots de passe ne correspondent pas")

	e.signupAlice()
	_, err = e.run(aliceSignup, "account", "signup")
	require.ErrorIs(t, err, common.ErrorDuplicateEmail)
}

func TestAccount_Update(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	e.mustRun("", "account", "update", "--city", "Lyon")
	assert.Contains(t, e.mustRun("", "account", "whoami"), "75002 Lyon")

	_, err := e.run("", "account", "update", "--email", "broken")
	require.ErrorIs(t, err, common.ErrorValidation)

	e.mustRun("N3wSecret!\n", "account", "update", "--password")
	e.mustRun("", "account", "logout")
	e.mustRun("N3wSecret!\n", "account", "login", "-e", "alice@x.com")
}

func TestAccount_RegisterAndAdminConfirm(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	// six answers prefilled from the profile, then t-shirt, diet,
	// emergency contact and medical notes
	answers := "\n\n\n\n\n\nM\n\nPaul 0612345678\n\n"
	out := e.mustRun(answers, "account", "register", "2")
	assert.Contains(t, out, "Registration for Trail des Vosges sent")
	assert.Contains(t, e.mustRun("", "account", "whoami"), "completed")

	mine := e.mustRun("", "account", "registrations")
	assert.Equal(t, 1, rows(mine))
	id := firstColumn(t, mine)

	out = e.mustRun(adminPassword, "admin", "registrations", "--course", "2")
	assert.Contains(t, out, "alice@x.com")

	out = e.mustRun(adminPassword, "admin", "confirm", id)
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, e.mustRun("", "account", "registrations"), "confirmed")

	_, err := e.run(adminPassword, "admin", "cancel", "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)

	out = e.mustRun(adminPassword, "admin", "stats")
	assert.Contains(t, out, "Trail des Vosges")
	assert.Contains(t, out, "By city:\n  Paris: 1")
}

func TestAccount_RegisterReasksInvalidOption(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	// t-shirt size XXXL is refused once, then M is accepted
	answers := "\n\n\n\n\n\nXXXL\nM\n\nPaul 0612345678\n\n"
	out := e.mustRun(answers, "account", "register", "1")
	assert.Contains(t, out, "pick one of the listed options")
}

func TestAccount_RegisterReasksInvalidPhone(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	// an emergency contact without a number is refused once
	answers := "\n\n\n\n\n\nM\n\nPaul\nPaul 06 12 34 56 78\n\n"
	out := e.mustRun(answers, "account", "register", "1")
	assert.Contains(t, out, security.MsgInvalidPhone)
	assert.Contains(t, out, "Registration for Marathon de Paris sent")
}

func TestFavorites(t *testing.T) {
	e := newEnv(t)

	_, err := e.run("", "favorites", "add", "1")
	require.ErrorIs(t, err, errNotSignedIn)

	e.signupAlice()
	assert.Contains(t, e.mustRun("", "favorites", "add", "1"), "Added Marathon de Paris")
	assert.Contains(t, e.mustRun("", "fav", "add", "1"), "already a favorite")
	e.mustRun("", "favorites", "add", "4")

	out := e.mustRun("", "favorites", "list")
	assert.Equal(t, 2, rows(out))

	assert.Contains(t, e.mustRun("", "favorites", "remove", "1"), "Removed course 1")
	assert.Contains(t, e.mustRun("", "favorites", "remove", "1"), "was not a favorite")
	assert.Contains(t, e.mustRun("", "account", "whoami"), "Favorites:  1")
}

func TestAdmin_ReportsAndDeleteUser(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()

	out := e.mustRun(adminPassword, "admin", "report")
	assert.Contains(t, out, "RUNREWARD - RAPPORT ADMINISTRATEUR")
	assert.Contains(t, out, "- Email: alice@x.com")

	csvPath := filepath.Join(e.dir, "exports", "users.csv")
	e.mustRun(adminPassword, "admin", "csv", "-o", csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Prénom,Nom,Email"))

	users := e.mustRun(adminPassword, "admin", "users")
	id := firstColumn(t, users)

	out = e.mustRun(adminPassword+"n\n", "admin", "delete-user", id)
	assert.Contains(t, out, "Aborted")

	e.mustRun(adminPassword, "admin", "delete-user", "--yes", id)
	assert.Equal(t, 0, rows(e.mustRun(adminPassword, "admin", "users")))
}

func TestAdmin_TestEmail(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(adminPassword, "admin", "test-email")
	assert.Contains(t, out, "log notifier")
}

func TestData_ExportImportSync(t *testing.T) {
	e := newEnv(t)
	e.signupAlice()
	e.mustRun("", "favorites", "add", "3")

	assert.Contains(t, e.mustRun("", "data", "mirror"), "The mirror is empty")
	out := e.mustRun("", "data", "sync")
	assert.Contains(t, out, "Mirrored 1 users, 0 registrations, 1 favorites")
	out = e.mustRun("", "data", "mirror")
	assert.Contains(t, out, "Signed in: alice@x.com")

	export := filepath.Join(e.dir, "export.json")
	e.mustRun("", "data", "export", "-o", export)

	other := newEnv(t)
	out = other.mustRun("", "data", "import", export)
	assert.Contains(t, out, "Imported 1 accounts, skipped 0")
	out = other.mustRun("", "data", "import", export)
	assert.Contains(t, out, "Imported 0 accounts, skipped 1")

	other.mustRun("Passw0rd!\n", "account", "login", "-e", "alice@x.com")
}

func TestData_WatchNeedsInterval(t *testing.T) {
	e := newEnv(t)
	_, err := e.run("", "data", "watch")
	require.ErrorContains(t, err, "--sync-interval")
}

func TestData_WatchStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, e.args("--sync-interval", "20ms", "data", "watch"), strings.NewReader(""), &out, &bytes.Buffer{})
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(e.dir, "mirror.db"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRun_WritesMetricsFile(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "runreward.prom")

	e.signupAlice()
	e.mustRun("", "--metrics-file", path, "courses", "list")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "runreward_store_operation_duration_seconds")
}

func TestRun_UnknownBackend(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), []string{"--env-file", "", "--storage", "floppy", "courses", "list"},
		strings.NewReader(""), &out, &out)
	require.ErrorContains(t, err, "unknown storage backend")
}
