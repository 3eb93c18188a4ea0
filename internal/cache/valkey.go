package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyClient fronts the scanner credential hash. Gate devices authenticate
// with basic auth; the hash maps scanner_id to a sha256 password digest
// provisioned out of band.
type ValkeyClient struct {
	client          *redis.Client
	scannersHashKey string
}

type Config struct {
	Addr            string
	Password        string
	ScannersHashKey string
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:          rdb,
		scannersHashKey: cfg.ScannersHashKey,
	}, nil
}

// VerifyScanner checks a scanner's basic auth credentials against the hash.
func (v *ValkeyClient) VerifyScanner(ctx context.Context, scannerID, password string) (bool, error) {
	stored, err := v.client.HGet(ctx, v.scannersHashKey, scannerID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("cache lookup error: %w", err)
	}

	digest := sha256.Sum256([]byte(password))
	return stored == hex.EncodeToString(digest[:]), nil
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
