package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrMalformed = errors.New("token malformed")
	ErrSignature = errors.New("token signature invalid")
	ErrExpired   = errors.New("token expired")
)

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Principal is what a verified token says about its bearer.
type Principal struct {
	Subject   string
	Email     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Issued struct {
	Token     string
	ExpiresAt time.Time
	TTL       time.Duration
}

type Codec struct {
	cfg Config
	now func() time.Time
}

func NewCodec(cfg Config) *Codec {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Codec{cfg: cfg, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == Refresh {
		return c.cfg.RefreshTTL
	}
	return c.cfg.AccessTTL
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == Refresh {
		return c.cfg.RefreshSecret
	}
	return c.cfg.AccessSecret
}

func (c *Codec) Issue(subject, email string, kind Kind) (Issued, error) {
	if subject == "" {
		return Issued{}, fmt.Errorf("issue %s token: empty subject", kind)
	}
	// NumericDate has second precision; truncating here keeps ExpiresAt
	// equal to the exp claim the token actually carries.
	now := c.now().Truncate(time.Second)
	exp := now.Add(c.TTL(kind))
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
	if err != nil {
		return Issued{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Issued{Token: signed, ExpiresAt: claims.ExpiresAt.Time, TTL: c.TTL(kind)}, nil
}

// Verify never panics on hostile input. The returned error is one of
// ErrMalformed, ErrSignature or ErrExpired.
func (c *Codec) Verify(token string, kind Kind) (*Principal, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	var claims Claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.cfg.Issuer))
	}

	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.secret(kind), nil
	}, opts...)

	switch {
	case err == nil && tkn.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrSignature
	default:
		return nil, ErrMalformed
	}

	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	p := &Principal{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	return p, nil
}
