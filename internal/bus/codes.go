package bus

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	codeTTL      = 5 * time.Minute
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// CodeStore keeps short-lived player link codes. Identity linking itself is
// deferred; only issuing and looking up codes is implemented.
type CodeStore struct {
	rdb *redis.Client
}

// Issue generates a 6-char alphanumeric code for the external user and
// stores it with a 5-minute TTL. Re-issuing replaces the previous code.
func (c *CodeStore) Issue(ctx context.Context, externalUserID string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	key := "link:code:" + externalUserID
	if err := c.rdb.Set(ctx, key, code, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("store link code: %w", err)
	}
	return code, nil
}

// Lookup returns the active code for the user, or "" when expired.
func (c *CodeStore) Lookup(ctx context.Context, externalUserID string) (string, error) {
	code, err := c.rdb.Get(ctx, "link:code:"+externalUserID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup link code: %w", err)
	}
	return code, nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate link code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
