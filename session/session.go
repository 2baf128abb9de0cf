// Package session owns the bearer credential and the identity snapshot
// behind it. The state lives in an explicit context passed by reference to
// whoever needs it, never in package globals, and survives restarts through
// a small sqlite record.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusdesk/reqsync/external/portal"
	"github.com/campusdesk/reqsync/schema"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "session")
}

var (
	ErrNotAuthenticated = fmt.Errorf("no credential available; log in first")
)

// record is the persisted session snapshot. A single row holds the bearer
// token and the serialized identity it belongs to.
type record struct {
	ID       uint   `gorm:"primaryKey"`
	Token    string `gorm:"not null"`
	UserJSON string `gorm:"not null"`
	SavedAt  time.Time
}

func (record) TableName() string {
	return "session_records"
}

// Context is the process-wide session state.
type Context struct {
	mu     sync.RWMutex
	db     *gorm.DB
	client portal.Portal

	token string
	user  *schema.User
}

// Open loads or creates the session database at path and binds the context
// to a portal client.
func Open(path string, client portal.Portal) (*Context, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store %s: %w", path, err)
	}

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	return &Context{
		db:     db,
		client: client,
	}, nil
}

// Init restores a persisted credential, if any, and verifies it against the
// portal. A locally expired token or a rejected one tears the session down;
// a transient network failure leaves the persisted credential in place and
// is returned to the caller.
func (s *Context) Init(ctx context.Context) error {
	var rec record
	if err := s.db.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load session record: %w", err)
	}

	if tokenExpired(rec.Token, time.Now()) {
		log.Info("persisted token already expired, discarding")
		return s.Teardown()
	}

	user, err := s.client.Me(ctx, rec.Token)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			log.Info("persisted token rejected, discarding")
			if terr := s.Teardown(); terr != nil {
				return terr
			}
			return err
		}
		return err
	}

	s.mu.Lock()
	s.token = rec.Token
	s.user = user
	s.mu.Unlock()

	log.WithField("email", user.Email).Info("session restored")
	return nil
}

// Login exchanges credentials for a bearer token and persists the result.
func (s *Context) Login(ctx context.Context, email, password string) error {
	token, user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.SetCredential(token, user)
}

// Register creates an account and persists the resulting credential.
func (s *Context) Register(ctx context.Context, reg schema.Registration) error {
	token, user, err := s.client.Register(ctx, reg)
	if err != nil {
		return err
	}
	return s.SetCredential(token, user)
}

// SetCredential installs and persists a fresh token/identity pair.
func (s *Context) SetCredential(token string, user *schema.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("serialize identity: %w", err)
	}

	if err := s.db.Where("1 = 1").Delete(&record{}).Error; err != nil {
		return fmt.Errorf("clear previous session record: %w", err)
	}
	if err := s.db.Create(&record{
		Token:    token,
		UserJSON: string(userJSON),
		SavedAt:  time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("persist session record: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	return nil
}

// Teardown clears the credential, both in memory and on disk. Called on
// logout and whenever the portal rejects the token.
func (s *Context) Teardown() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.db.Where("1 = 1").Delete(&record{}).Error; err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// Token returns the current bearer token, or ErrNotAuthenticated.
func (s *Context) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// User returns a copy of the identity snapshot, or nil when logged out.
func (s *Context) User() *schema.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a credential is installed.
func (s *Context) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// tokenExpired inspects the exp claim without verifying the signature; the
// client holds no key material, and the portal re-checks on every call
// anyway. A token that does not parse is treated as expired.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.StandardClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= claims.ExpiresAt
}
