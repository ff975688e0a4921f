package session_test

import (
	"context"
	"io"
	"mime/multipart"
	"sync"

	"github.com/goliatone/go-router"
	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/mock"
)

// MockIdentityService implements session.IdentityService
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) ExchangeCredentials(ctx context.Context, identifier, password string) (*session.IdentityRecord, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(*session.IdentityRecord)
	return identity, args.Error(1)
}

func (m *MockIdentityService) FetchCurrentIdentity(ctx context.Context) (*session.IdentityRecord, error) {
	args := m.Called(ctx)
	identity, _ := args.Get(0).(*session.IdentityRecord)
	return identity, args.Error(1)
}

func (m *MockIdentityService) InvalidateSession(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// blockingIdentityService lets tests hold the identity probe open so they
// can assert what happens while a fetch is still in flight.
type blockingIdentityService struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	result  *session.IdentityRecord
	err     error
}

func newBlockingIdentityService(result *session.IdentityRecord, err error) *blockingIdentityService {
	return &blockingIdentityService{
		release: make(chan struct{}),
		result:  result,
		err:     err,
	}
}

func (b *blockingIdentityService) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *blockingIdentityService) Release() {
	close(b.release)
}

func (b *blockingIdentityService) ExchangeCredentials(ctx context.Context, identifier, password string) (*session.IdentityRecord, error) {
	return nil, session.ErrInvalidCredentials
}

func (b *blockingIdentityService) FetchCurrentIdentity(ctx context.Context) (*session.IdentityRecord, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return b.result, b.err
}

func (b *blockingIdentityService) InvalidateSession(ctx context.Context) error {
	return nil
}

// funcIdentityService builds an IdentityService out of plain functions
type funcIdentityService struct {
	exchange   func(ctx context.Context, identifier, password string) (*session.IdentityRecord, error)
	fetch      func(ctx context.Context) (*session.IdentityRecord, error)
	invalidate func(ctx context.Context) error
}

func (f funcIdentityService) ExchangeCredentials(ctx context.Context, identifier, password string) (*session.IdentityRecord, error) {
	if f.exchange == nil {
		return nil, session.ErrInvalidCredentials
	}
	return f.exchange(ctx, identifier, password)
}

func (f funcIdentityService) FetchCurrentIdentity(ctx context.Context) (*session.IdentityRecord, error) {
	if f.fetch == nil {
		return nil, session.ErrAnonymous
	}
	return f.fetch(ctx)
}

func (f funcIdentityService) InvalidateSession(ctx context.Context) error {
	if f.invalidate == nil {
		return nil
	}
	return f.invalidate(ctx)
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event session.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Events() []session.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) EventTypes() []session.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]session.ActivityEventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.EventType)
	}
	return types
}

// testConfig implements session.Config
type testConfig struct {
	fallbackRoute string
	pendingView   string
	adminRole     string
}

func (c testConfig) GetFallbackRoute() string { return c.fallbackRoute }
func (c testConfig) GetPendingView() string   { return c.pendingView }
func (c testConfig) GetAdminRole() string     { return c.adminRole }

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	file, _ := args.Get(0).(*multipart.FileHeader)
	return file, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}

type loggedEntry struct {
	msg  string
	args []any
}

// recordingLogger captures log calls so tests can assert on what a
// component reported.
type recordingLogger struct {
	mu      sync.Mutex
	entries map[string][]loggedEntry
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries == nil {
		l.entries = map[string][]loggedEntry{}
	}
	l.entries[level] = append(l.entries[level], loggedEntry{msg: msg, args: args})
}

func (l *recordingLogger) Entries(level string) []loggedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]loggedEntry(nil), l.entries[level]...)
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
