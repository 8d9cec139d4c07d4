package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/utility-payments/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound            = errors.New("idempotency key not found")
	ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")
	ErrKeyTooLong          = fmt.Errorf("idempotency key longer than %d bytes", MaxKeyLength)
)

const (
	redisKeyPrefix = "idempotency"
	// MaxKeyLength bounds both client-supplied and generated keys.
	MaxKeyLength = 100
	// keyConstraint is the unique constraint backing transactions.idempotency_key.
	keyConstraint = "transactions_idempotency_key_key"
)

// Guard finds the transaction already created for an idempotency key.
// Redis caches key -> transaction id; Postgres is authoritative.
type Guard struct {
	redis   redis.Cmdable
	queries *repository.Queries
	ttl     time.Duration
	group   singleflight.Group
}

func NewGuard(redis redis.Cmdable, db repository.DBTX, ttl time.Duration) *Guard {
	return &Guard{redis: redis, queries: repository.New(db), ttl: ttl}
}

type cacheEnvelope struct {
	TransactionID string `json:"transaction_id"`
	Fingerprint   string `json:"fingerprint"`
}

// Lookup returns the transaction stored under key. A non-empty fingerprint
// that disagrees with the stored one yields ErrFingerprintMismatch.
func (g *Guard) Lookup(ctx context.Context, key, fingerprint string) (repository.Transaction, error) {
	if key == "" {
		return repository.Transaction{}, ErrNotFound
	}
	if g.redis != nil {
		val, err := g.redis.Get(ctx, redisKey(key)).Result()
		if err == nil {
			var env cacheEnvelope
			if json.Unmarshal([]byte(val), &env) == nil {
				if mismatch(env.Fingerprint, fingerprint) {
					return repository.Transaction{}, ErrFingerprintMismatch
				}
				if id, err := uuid.Parse(env.TransactionID); err == nil {
					tx, err := g.queries.GetTransaction(ctx, repository.ToPgUUID(id))
					if err == nil {
						return tx, nil
					}
					if !repository.IsNotFound(err) {
						return repository.Transaction{}, fmt.Errorf("load cached idempotent transaction: %w", err)
					}
				}
			}
		} else if err != redis.Nil {
			zap.L().Warn("redis idempotency lookup failed", zap.Error(err))
		}
	}

	tx, err := g.queries.GetTransactionByIdempotencyKey(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return repository.Transaction{}, ErrNotFound
		}
		return repository.Transaction{}, fmt.Errorf("lookup idempotency key: %w", err)
	}
	stored := ""
	if tx.RequestFingerprint != nil {
		stored = *tx.RequestFingerprint
	}
	if mismatch(stored, fingerprint) {
		return repository.Transaction{}, ErrFingerprintMismatch
	}
	g.Remember(ctx, key, stored, repository.FromPgUUID(tx.ID))
	return tx, nil
}

// Remember caches key -> txID. Call it after the owning transaction commits.
func (g *Guard) Remember(ctx context.Context, key, fingerprint string, txID uuid.UUID) {
	if g.redis == nil || key == "" {
		return
	}
	payload, err := json.Marshal(cacheEnvelope{TransactionID: txID.String(), Fingerprint: fingerprint})
	if err != nil {
		zap.L().Warn("marshal idempotency cache", zap.Error(err))
		return
	}
	if err := g.redis.Set(ctx, redisKey(key), payload, g.ttl).Err(); err != nil {
		zap.L().Warn("redis idempotency cache set failed", zap.Error(err))
	}
}

// Do runs fn once per key among concurrent callers in this process. Callers
// that joined an in-flight call get shared=true.
func (g *Guard) Do(key string, fn func() (interface{}, error)) (v interface{}, err error, shared bool) {
	return g.group.Do(key, fn)
}

// NewKey generates "<prefix>-<unixms>-<uuid>". The prefix is shortened so the
// key fits in MaxKeyLength.
func NewKey(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "purchase"
	}
	suffix := fmt.Sprintf("-%d-%s", time.Now().UnixMilli(), uuid.NewString())
	if room := MaxKeyLength - len(suffix); len(prefix) > room {
		prefix = prefix[:room]
	}
	return prefix + suffix
}

// NormalizeKey trims a client key. Keys longer than MaxKeyLength are rejected
// with ErrKeyTooLong rather than cut, so distinct keys never collide.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	return key, nil
}

// IsKeyConflict reports whether err is the unique violation raised when a
// concurrent request already stored the same key.
func IsKeyConflict(err error) bool {
	return repository.IsUniqueViolation(err, keyConstraint)
}

// Fingerprint hashes the canonical JSON encoding of v.
func Fingerprint(v interface{}) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func mismatch(stored, incoming string) bool {
	return stored != "" && incoming != "" && stored != incoming
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
