package cli

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/nicole/internal/accounts"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/recovery"
	"github.com/dmitrijs2005/nicole/internal/session"
)

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// askPassword reads a password without echo and wipes the buffer.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// askNewPassword reads a password twice. An empty first answer is returned
// as is when optional is set.
func (a *App) askNewPassword(optional bool) (string, error) {
	prompt := "New password"
	if optional {
		prompt += " (empty to keep the current one)"
	}
	pw, err := a.askPassword(prompt)
	if err != nil {
		return "", err
	}
	if pw == "" && optional {
		return "", nil
	}
	again, err := a.askPassword("Repeat password")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	return pw, nil
}

// issue sends a code unless key is still cooling down.
func (a *App) issue(ctx context.Context, key string, send func(ctx context.Context) error) error {
	if left := a.cooldown.remaining(key); left > 0 {
		return fmt.Errorf("please wait %d seconds before requesting a new code", int(math.Ceil(left.Seconds())))
	}
	if err := send(ctx); err != nil {
		return err
	}
	a.cooldown.mark(key)
	return nil
}

// awaitCode prompts for a verification code until confirm accepts it or the
// operator cancels. "resend" issues a new code subject to the cooldown.
func (a *App) awaitCode(ctx context.Context, key string, resend func(ctx context.Context) error, confirm func(ctx context.Context, code string) error) error {
	for {
		code, err := a.prompt("Enter the verification code ('resend' for a new one, empty to cancel)")
		if err != nil {
			return err
		}

		switch code {
		case "":
			return errCancelled
		case "resend":
			if err := a.issue(ctx, key, resend); err != nil {
				if errors.Is(err, recovery.ErrDelivery) || errors.Is(err, common.ErrorUnavailable) {
					return err
				}
				a.println(describe(err))
				continue
			}
			a.println("A new code was sent.")
			continue
		}

		err = confirm(ctx, code)
		if errors.Is(err, recovery.ErrInvalidOrExpired) || errors.Is(err, common.ErrorValidation) {
			a.println(describe(err))
			continue
		}
		return err
	}
}

func (a *App) Login(ctx context.Context, args []string) error {
	if a.sess != nil {
		a.printf("Already logged in as %s.\n", a.sess.UserName)
		return nil
	}

	userName := argOr(args, 0)
	if userName == "" {
		var err error
		if userName, err = a.prompt("Username"); err != nil {
			return err
		}
	}
	password, err := a.askPassword("Password")
	if err != nil {
		return err
	}

	sess, err := a.auth.Authenticate(ctx, userName, password)
	if err != nil {
		return err
	}

	a.sess, a.current, a.last = sess, "", nil
	role := "user"
	if sess.IsAdmin {
		role = "administrator"
	}
	a.printf("Welcome, %s (%s).\n", sess.UserName, role)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if a.sess == nil {
		return common.ErrorUnauthorized
	}
	a.log.Info(ctx, "session closed", "user", a.sess.UserName, "session", a.sess.ID.String())
	a.sess, a.current, a.last = nil, "", nil
	a.println("Logged out.")
	return nil
}

func (a *App) Whoami(_ context.Context, _ []string) error {
	if a.sess == nil {
		return common.ErrorUnauthorized
	}
	role := "user"
	if a.sess.IsAdmin {
		role = "administrator"
	}
	a.printf("%s (%s), session %s since %s\n", a.sess.UserName, role, a.sess.ID, a.sess.StartedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// AddUser registers a new account after its email is confirmed.
func (a *App) AddUser(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermManageUsers); err != nil {
		return err
	}

	userName, err := a.prompt("Username")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.askNewPassword(false)
	if err != nil {
		return err
	}
	isAdmin, err := confirm(a.reader, "Grant administrator rights?", a.out)
	if err != nil {
		return err
	}

	key := "registration:" + email
	var pending *accounts.PendingRegistration
	begin := func(ctx context.Context) error {
		p, err := a.auth.BeginRegistration(ctx, a.sess, userName, email, password, isAdmin)
		if err != nil {
			return err
		}
		pending = p
		return nil
	}
	if err := a.issue(ctx, key, begin); err != nil {
		return err
	}
	a.printf("A verification code was sent to %s.\n", email)

	err = a.awaitCode(ctx, key, begin, func(ctx context.Context, code string) error {
		_, err := a.auth.ConfirmRegistration(ctx, a.sess, pending, code)
		return err
	})
	if err != nil {
		return err
	}
	a.printf("User %s created.\n", userName)
	return nil
}

// Reset sets a new password for the account matching a username or email.
// It does not need a session.
func (a *App) Reset(ctx context.Context, args []string) error {
	identifier := argOr(args, 0)
	if identifier == "" {
		var err error
		if identifier, err = a.prompt("Username or email"); err != nil {
			return err
		}
	}

	key := "reset:" + identifier
	request := func(ctx context.Context) error {
		_, err := a.auth.RequestPasswordReset(ctx, identifier)
		return err
	}
	if err := a.issue(ctx, key, request); err != nil {
		return err
	}
	a.println("A verification code was sent to the registered email.")

	err := a.awaitCode(ctx, key, request, func(ctx context.Context, code string) error {
		password, err := a.askNewPassword(false)
		if err != nil {
			return err
		}
		return a.auth.ResetPassword(ctx, identifier, code, password)
	})
	if err != nil {
		return err
	}
	a.println("Password updated, you can log in now.")
	return nil
}

// Profile changes the email, and optionally the password, of the current
// user once the new email is confirmed.
func (a *App) Profile(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}

	email, err := a.prompt("New email")
	if err != nil {
		return err
	}
	password, err := a.askNewPassword(true)
	if err != nil {
		return err
	}

	key := "profile:" + email
	var pending *accounts.PendingProfileChange
	begin := func(ctx context.Context) error {
		p, err := a.auth.BeginProfileChange(ctx, a.sess, email, password)
		if err != nil {
			return err
		}
		pending = p
		return nil
	}
	if err := a.issue(ctx, key, begin); err != nil {
		return err
	}
	a.printf("A verification code was sent to %s.\n", email)

	err = a.awaitCode(ctx, key, begin, func(ctx context.Context, code string) error {
		return a.auth.ConfirmProfileChange(ctx, a.sess, pending, code)
	})
	if err != nil {
		return err
	}
	a.println("Profile updated.")
	return nil
}
