// Package recovery issues and verifies the six-digit, single-use codes that
// confirm control of an email address.
package recovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/repositories/recoverycodes"
	"golang.org/x/time/rate"
)

const (
	CodeLength = 6
	DefaultTTL = 15 * time.Minute
)

var (
	// ErrInvalidOrExpired covers a wrong code, an expired code and an unknown
	// identifier alike.
	ErrInvalidOrExpired = errors.New("invalid or expired code")
	// ErrDelivery means the code was stored but could not be sent.
	ErrDelivery = errors.New("verification code could not be delivered")
	// ErrTooManyAttempts is returned when attempt limiting is enabled and
	// exhausted.
	ErrTooManyAttempts = errors.New("too many verification attempts, try again later")
)

// Mailer delivers a code to an address.
type Mailer interface {
	Send(ctx context.Context, purpose models.Purpose, to, code string) error
}

type Options struct {
	TTL time.Duration
	// AttemptsPerMinute limits Verify calls. Zero means unlimited.
	AttemptsPerMinute int
}

type Manager struct {
	db      *sql.DB
	repo    func(dbx.DBTX) recoverycodes.Repository
	mailer  Mailer
	ttl     time.Duration
	limiter *rate.Limiter
	log     logging.Logger

	now      func() time.Time
	generate func() (string, error)
}

func NewManager(db *sql.DB, repo func(dbx.DBTX) recoverycodes.Repository, mailer Mailer, opts Options, log logging.Logger) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var limiter *rate.Limiter
	if opts.AttemptsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.AttemptsPerMinute)), opts.AttemptsPerMinute)
	}

	return &Manager{
		db:       db,
		repo:     repo,
		mailer:   mailer,
		ttl:      ttl,
		limiter:  limiter,
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		generate: func() (string, error) { return common.MakeRandDigits(CodeLength) },
	}
}

// Issue replaces any code held by userName with a fresh one and mails it to
// email. When delivery fails the stored code is left to expire and
// ErrDelivery is returned.
func (m *Manager) Issue(ctx context.Context, purpose models.Purpose, userName, email string) error {
	code, err := m.generate()
	if err != nil {
		return fmt.Errorf("%w: generate code: %v", common.ErrorInternal, err)
	}

	rc := &models.RecoveryCode{
		UserName:  userName,
		Email:     email,
		Code:      code,
		ExpiresAt: m.now().Add(m.ttl),
		Purpose:   purpose,
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repo(tx)
		if err := repo.DeleteByUserName(ctx, userName); err != nil {
			return err
		}
		return repo.Insert(ctx, rc)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	if err := m.mailer.Send(ctx, purpose, email, code); err != nil {
		m.log.Error(ctx, "verification code not delivered", "purpose", string(purpose), "user", userName, "error", err)
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	m.log.Info(ctx, "verification code issued", "purpose", string(purpose), "user", userName, "expires", rc.ExpiresAt)
	return nil
}

// Verify checks code for identifier (username or email) and consumes it.
// It returns the username the code was issued to.
func (m *Manager) Verify(ctx context.Context, identifier, code string) (string, error) {
	var userName string
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		userName, err = m.VerifyTx(ctx, tx, identifier, code)
		return err
	})
	if err != nil {
		return "", err
	}
	return userName, nil
}

// VerifyTx is Verify inside the caller's transaction, so the code is only
// consumed if the dependent change commits.
func (m *Manager) VerifyTx(ctx context.Context, tx dbx.DBTX, identifier, code string) (string, error) {
	if m.limiter != nil && !m.limiter.Allow() {
		m.log.Warn(ctx, "verification attempt rate limited", "identifier", identifier)
		return "", ErrTooManyAttempts
	}

	repo := m.repo(tx)
	userName, err := repo.FindValid(ctx, identifier, code, m.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrInvalidOrExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}

	if err := repo.DeleteByUserName(ctx, userName); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	return userName, nil
}
