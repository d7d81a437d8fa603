package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/pcgearph/storefront/internal/redisx"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	DB    *pgxpool.Pool
	Redis *redis.Client

	Secret      []byte
	TokenTTL    time.Duration
	MaxAttempts int
}

// Login verifies credentials against the users table (username or email)
// and issues a signed token. Failed attempts are counted per username in
// Redis; once the cap is hit the account cools down for the window TTL.
// The counter is server-side session state, not something a client can
// reset by clearing its own storage.
func (s *Service) Login(ctx context.Context, username, password string) (string, User, error) {
	if blocked, _ := s.attemptsExceeded(ctx, username); blocked {
		return "", User{}, ErrTooManyAttempts
	}

	var u User
	var hash string
	err := s.DB.QueryRow(ctx, `
		SELECT id, username, email, password, role FROM users
		WHERE username = $1 OR email = $1 LIMIT 1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &hash, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		s.recordFailure(ctx, username)
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		s.recordFailure(ctx, username)
		return "", User{}, ErrInvalidCredentials
	}

	_ = s.Redis.Del(ctx, attemptsKey(username)).Err()

	tok, err := s.IssueToken(u)
	if err != nil {
		return "", User{}, err
	}
	return tok, u, nil
}

func (s *Service) IssueToken(u User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *Service) VerifyToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *Service) attemptsExceeded(ctx context.Context, username string) (bool, error) {
	v, err := s.Redis.Get(ctx, attemptsKey(username)).Result()
	if err != nil {
		return false, err // missing key or redis down: do not lock anyone out
	}
	n, _ := strconv.Atoi(v)
	return n >= s.MaxAttempts, nil
}

func (s *Service) recordFailure(ctx context.Context, username string) {
	key := attemptsKey(username)
	n, err := s.Redis.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if n == 1 {
		_ = s.Redis.Expire(ctx, key, redisx.TTLLoginCooldown).Err()
	}
}

func attemptsKey(username string) string {
	return fmt.Sprintf(redisx.KeyLoginAttempts, username)
}
