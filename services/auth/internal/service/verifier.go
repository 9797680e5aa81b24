package service

import (
	"context"
	"sync"

	"github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

// Verifier checks login credentials. The kinds it returns tell the failures
// apart for logging; callers normalize them before answering a client.
type Verifier struct {
	Users UserStore
	// RequireVerified rejects accounts that have not confirmed their email.
	RequireVerified bool
}

var checkPassword = hash.CheckPassword

// decoyHash is compared against when there is no stored hash, so every
// failed lookup pays one bcrypt comparison like a real account does.
var decoyHash = sync.OnceValue(func() string {
	h, err := hash.HashPassword("decoy-password-never-matches")
	if err != nil {
		panic(err)
	}
	return h
})

func (v *Verifier) Verify(ctx context.Context, identifier, password string) (*models.User, error) {
	const op = "verifier.verify"

	user, err := v.Users.FindByIdentifier(ctx, identifier)
	if err != nil {
		checkPassword(decoyHash(), password)
		return nil, err
	}

	var ok bool
	if user.PasswordHash != nil {
		ok = checkPassword(*user.PasswordHash, password)
	} else {
		checkPassword(decoyHash(), password)
	}

	if !user.IsActive {
		return nil, domain.E(domain.KindAccountDisabled, op, nil)
	}
	if !ok {
		return nil, domain.E(domain.KindInvalidCredentials, op, nil)
	}
	if v.RequireVerified && !user.IsVerified {
		return nil, domain.E(domain.KindAccountNotVerified, op, nil)
	}
	return user, nil
}
