package account_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	account "github.com/nightcatsama/go-account"
	"github.com/nightcatsama/go-account/persistence"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testConfig struct {
	siteName  string
	publicURL string
	secret    string
	ttl       int
	issuer    string
}

func (c testConfig) GetSiteName() string      { return c.siteName }
func (c testConfig) GetPublicURL() string     { return c.publicURL }
func (c testConfig) GetSessionSecret() string { return c.secret }
func (c testConfig) GetTokenExpiration() int  { return c.ttl }
func (c testConfig) GetIssuer() string        { return c.issuer }
func (c testConfig) GetSessionKey() string    { return "session_id" }

func newTestConfig() testConfig {
	return testConfig{
		siteName:  "NightCat",
		publicURL: "http://localhost:8080",
		secret:    "test-secret",
		ttl:       24,
		issuer:    "go-account-test",
	}
}

// MockUsers implements account.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) user(args mock.Arguments) (*account.User, error) {
	if u, ok := args.Get(0).(*account.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) FindByAccount(ctx context.Context, acc string) (*account.User, error) {
	return m.user(m.Called(ctx, acc))
}

func (m *MockUsers) FindByAccountTx(ctx context.Context, tx bun.IDB, acc string) (*account.User, error) {
	return m.user(m.Called(ctx, tx, acc))
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*account.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUsers) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*account.User, error) {
	return m.user(m.Called(ctx, tx, email))
}

func (m *MockUsers) Insert(ctx context.Context, user *account.User) (*account.User, error) {
	return m.user(m.Called(ctx, user))
}

func (m *MockUsers) InsertTx(ctx context.Context, tx bun.IDB, user *account.User) (*account.User, error) {
	return m.user(m.Called(ctx, tx, user))
}

func (m *MockUsers) Update(ctx context.Context, user *account.User) (*account.User, error) {
	return m.user(m.Called(ctx, user))
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, user *account.User) (*account.User, error) {
	return m.user(m.Called(ctx, tx, user))
}

func (m *MockUsers) MarkActivated(ctx context.Context, id uuid.UUID, at time.Time) (*account.User, error) {
	return m.user(m.Called(ctx, id, at))
}

func (m *MockUsers) MarkActivatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*account.User, error) {
	return m.user(m.Called(ctx, tx, id, at))
}

// MockRepositoryManager runs transactions inline without a database
type MockRepositoryManager struct {
	users *MockUsers
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() account.Users { return m.users }

// MockNotifier implements account.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendActivationEmail(ctx context.Context, to, key, acc string) error {
	return m.Called(ctx, to, key, acc).Error(0)
}

// recordingNotifier keeps every activation email it was asked to send
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

type sentEmail struct {
	To      string
	Key     string
	Account string
}

func (n *recordingNotifier) SendActivationEmail(_ context.Context, to, key, acc string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{To: to, Key: key, Account: acc})
	return nil
}

func (n *recordingNotifier) last() sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentEmail{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// recordingSink keeps every activity event
type recordingSink struct {
	mu     sync.Mutex
	events []account.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event account.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) types() []account.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]account.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *recordingSink) find(eventType account.ActivityEventType) (account.ActivityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.EventType == eventType {
			return e, true
		}
	}
	return account.ActivityEvent{}, false
}

// bufferLogger collects formatted log lines
type bufferLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *bufferLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *bufferLogger) Debug(format string, args ...any) { l.add("DEBUG", format, args...) }
func (l *bufferLogger) Info(format string, args ...any)  { l.add("INFO", format, args...) }
func (l *bufferLogger) Warn(format string, args ...any)  { l.add("WARN", format, args...) }
func (l *bufferLogger) Error(format string, args ...any) { l.add("ERROR", format, args...) }

func (l *bufferLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := persistence.Open(context.Background(), persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = persistence.Migrate(context.Background(), db)
	require.NoError(t, err)

	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
