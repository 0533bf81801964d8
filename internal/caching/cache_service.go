package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Invoice basis caching, keyed by document identity. A nil result with a
	// nil error is a cache miss.
	GetInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error)
	SetInvoiceBasis(ctx context.Context, doc *models.InvoiceBasis, ttl time.Duration) error
	DeleteInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func invoiceBasisKey(orgID, id uuid.UUID) string {
	return fmt.Sprintf("byggmart:invoice_basis:%s:%s", orgID.String(), id.String())
}

func (r *redisCacheService) GetInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) (*models.InvoiceBasis, error) {
	data, err := r.client.Get(ctx, invoiceBasisKey(orgID, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var doc models.InvoiceBasis
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *redisCacheService) SetInvoiceBasis(ctx context.Context, doc *models.InvoiceBasis, ttl time.Duration) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, invoiceBasisKey(doc.OrgID, doc.ID), data, ttl).Err()
}

func (r *redisCacheService) DeleteInvoiceBasis(ctx context.Context, orgID, id uuid.UUID) error {
	return r.client.Del(ctx, invoiceBasisKey(orgID, id)).Err()
}
