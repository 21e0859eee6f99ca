// Package memory is an in-process implementation of the backend contract.
// It backs local development (BACKEND=memory) and the test suites.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"portfolio-site/internal/backend"
)

// TimestampLayout matches the microsecond precision PostgREST returns for
// timestamptz columns, which keeps lexical and chronological order equal.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

type account struct {
	password string
	user     backend.User
}

type Backend struct {
	mu sync.Mutex

	now    func() time.Time
	secret []byte
	ttl    time.Duration

	users    map[string]*account
	access   map[string]string
	refresh  map[string]string
	tables   map[string][]map[string]interface{}
	failures map[string]error
	calls    map[string]int
	last     time.Time
}

type Option func(*Backend)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithJWTSecret makes issued access tokens HS256 JWTs signed with secret,
// the same shape Supabase issues.
func WithJWTSecret(secret string) Option {
	return func(b *Backend) { b.secret = []byte(secret) }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(b *Backend) { b.ttl = ttl }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		now:      time.Now,
		ttl:      time.Hour,
		users:    make(map[string]*account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		tables:   make(map[string][]map[string]interface{}),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddUser registers a confirmed account.
func (b *Backend) AddUser(email, password string, appMetadata map[string]interface{}) backend.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password, nil, appMetadata)
}

func (b *Backend) addUserLocked(email, password string, userMetadata, appMetadata map[string]interface{}) backend.User {
	user := backend.User{
		ID:           uuid.NewString(),
		Email:        email,
		UserMetadata: userMetadata,
		AppMetadata:  appMetadata,
	}
	b.users[email] = &account{password: password, user: user}
	return user
}

// Fail makes the next calls of op fail with err until cleared with a nil
// error. Ops are "signin", "signup", "signout", "refresh" and
// "<select|insert|update|delete>:<table>".
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// IssueSession signs email in without a password check.
func (b *Backend) IssueSession(email string) (*backend.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.users[email]
	if !ok {
		return nil, &backend.Error{Op: "signin", Message: "User not found", Status: http.StatusBadRequest}
	}
	return b.issueLocked(acc.user)
}

// Rows returns a snapshot of a table.
func (b *Backend) Rows(table string) []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(b.tables[table]))
	for _, row := range b.tables[table] {
		out = append(out, cloneRow(row))
	}
	return out
}

func (b *Backend) begin(op string) error {
	b.calls[op]++
	if err, ok := b.failures[op]; ok {
		return err
	}
	return nil
}

func (b *Backend) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("signin"); err != nil {
		return nil, err
	}
	acc, ok := b.users[creds.Email]
	if !ok || acc.password != creds.Password {
		return nil, &backend.Error{Op: "signin", Message: "Invalid login credentials", Status: http.StatusBadRequest}
	}
	return b.issueLocked(acc.user)
}

func (b *Backend) SignUp(ctx context.Context, creds backend.Credentials, data map[string]interface{}) (*backend.SignUpResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("signup"); err != nil {
		return nil, err
	}
	if _, exists := b.users[creds.Email]; exists {
		return nil, &backend.Error{Op: "signup", Message: "User already registered", Status: http.StatusUnprocessableEntity}
	}
	if len(creds.Password) < 6 {
		return nil, &backend.Error{Op: "signup", Message: "Password should be at least 6 characters.", Status: http.StatusUnprocessableEntity}
	}
	user := b.addUserLocked(creds.Email, creds.Password, data, nil)
	session, err := b.issueLocked(user)
	if err != nil {
		return nil, err
	}
	return &backend.SignUpResult{User: user, Session: session}, nil
}

func (b *Backend) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("signout"); err != nil {
		return err
	}
	email, ok := b.access[accessToken]
	if !ok {
		return nil
	}
	delete(b.access, accessToken)
	for token, owner := range b.refresh {
		if owner == email {
			delete(b.refresh, token)
		}
	}
	return nil
}

func (b *Backend) RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("refresh"); err != nil {
		return nil, err
	}
	email, ok := b.refresh[refreshToken]
	if !ok {
		return nil, &backend.Error{Op: "refresh", Message: "Invalid Refresh Token: Refresh Token Not Found", Status: http.StatusBadRequest}
	}
	delete(b.refresh, refreshToken)
	acc, ok := b.users[email]
	if !ok {
		return nil, &backend.Error{Op: "refresh", Message: "User not found", Status: http.StatusBadRequest}
	}
	return b.issueLocked(acc.user)
}

func (b *Backend) issueLocked(user backend.User) (*backend.Session, error) {
	expiresAt := b.now().Add(b.ttl)
	accessToken := uuid.NewString()
	if len(b.secret) > 0 {
		claims := jwt.MapClaims{
			"sub":           user.ID,
			"email":         user.Email,
			"role":          "authenticated",
			"exp":           expiresAt.Unix(),
			"app_metadata":  user.AppMetadata,
			"user_metadata": user.UserMetadata,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
		if err != nil {
			return nil, fmt.Errorf("failed to sign access token: %w", err)
		}
		accessToken = signed
	}
	refreshToken := uuid.NewString()
	b.access[accessToken] = user.Email
	b.refresh[refreshToken] = user.Email

	return &backend.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// Table implements backend.Tables.
func (b *Backend) Table(name, accessToken string) backend.Table {
	return &table{backend: b, name: name, token: accessToken}
}

type table struct {
	backend *Backend
	name    string
	token   string
}

func (t *table) authorize(op string, write bool) error {
	b := t.backend
	if t.token == "" {
		if write {
			return &backend.Error{
				Op:      op,
				Message: fmt.Sprintf("new row violates row-level security policy for table %q", t.name),
				Status:  http.StatusUnauthorized,
			}
		}
		return nil
	}
	if _, ok := b.access[t.token]; !ok {
		return &backend.Error{Op: op, Message: "JWT expired", Status: http.StatusUnauthorized}
	}
	return nil
}

func (t *table) Select(ctx context.Context, columns string, order backend.Order) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	op := "select:" + t.name
	if err := b.begin(op); err != nil {
		return nil, err
	}
	if err := t.authorize(op, false); err != nil {
		return nil, err
	}

	rows := make([]map[string]interface{}, 0, len(b.tables[t.name]))
	for _, row := range b.tables[t.name] {
		rows = append(rows, project(row, columns))
	}
	if order.Column != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left, right := sortKey(rows[i][order.Column]), sortKey(rows[j][order.Column])
			if order.Ascending {
				return left < right
			}
			return left > right
		})
	}
	return json.Marshal(rows)
}

func (t *table) Insert(ctx context.Context, row interface{}) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	op := "insert:" + t.name
	if err := b.begin(op); err != nil {
		return nil, err
	}
	if err := t.authorize(op, true); err != nil {
		return nil, err
	}

	fields, err := toRow(row)
	if err != nil {
		return nil, &backend.Error{Op: op, Message: err.Error(), Status: http.StatusBadRequest}
	}
	stamp := b.stampLocked()
	fields["id"] = uuid.NewString()
	fields["created_at"] = stamp
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = stamp
	}
	b.tables[t.name] = append(b.tables[t.name], fields)
	return json.Marshal([]map[string]interface{}{cloneRow(fields)})
}

func (t *table) Update(ctx context.Context, row interface{}, idColumn, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	op := "update:" + t.name
	if err := b.begin(op); err != nil {
		return nil, err
	}
	if err := t.authorize(op, true); err != nil {
		return nil, err
	}

	fields, err := toRow(row)
	if err != nil {
		return nil, &backend.Error{Op: op, Message: err.Error(), Status: http.StatusBadRequest}
	}
	updated := make([]map[string]interface{}, 0, 1)
	for _, existing := range b.tables[t.name] {
		if fmt.Sprint(existing[idColumn]) != id {
			continue
		}
		for k, v := range fields {
			if k == "id" || k == "created_at" {
				continue
			}
			existing[k] = v
		}
		updated = append(updated, cloneRow(existing))
	}
	return json.Marshal(updated)
}

func (t *table) Delete(ctx context.Context, idColumn, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	op := "delete:" + t.name
	if err := b.begin(op); err != nil {
		return nil, err
	}
	if err := t.authorize(op, true); err != nil {
		return nil, err
	}

	kept := b.tables[t.name][:0]
	deleted := make([]map[string]interface{}, 0, 1)
	for _, existing := range b.tables[t.name] {
		if fmt.Sprint(existing[idColumn]) == id {
			deleted = append(deleted, existing)
			continue
		}
		kept = append(kept, existing)
	}
	b.tables[t.name] = kept
	return json.Marshal(deleted)
}

// stampLocked returns a strictly increasing timestamp so rows inserted in the
// same instant still order deterministically by created_at.
func (b *Backend) stampLocked() string {
	now := b.now().UTC()
	if !now.After(b.last) {
		now = b.last.Add(time.Microsecond)
	}
	b.last = now
	return now.Format(TimestampLayout)
}

func toRow(value interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var row map[string]interface{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func project(row map[string]interface{}, columns string) map[string]interface{} {
	columns = strings.TrimSpace(columns)
	if columns == "" || columns == "*" {
		return cloneRow(row)
	}
	out := make(map[string]interface{})
	for _, col := range strings.Split(columns, ",") {
		col = strings.TrimSpace(col)
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}

func sortKey(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func cloneRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
