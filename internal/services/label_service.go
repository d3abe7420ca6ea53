package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/custodia/backend/internal/store"
)

// LabelService produces scannable QR labels for physical badges. A label
// token resolves, through Redis, to the badge and its custody state at the
// time of printing.
type LabelService struct {
	resolver *StatusResolver
	redis    *redis.Client
	ttl      time.Duration
	size     int
}

func NewLabelService(ls store.LedgerStore, redisClient *redis.Client, ttl time.Duration, size int) *LabelService {
	return &LabelService{
		resolver: NewStatusResolver(ls),
		redis:    redisClient,
		ttl:      ttl,
		size:     size,
	}
}

// GenerateBadgeLabel returns the label token and a base64 PNG of its QR code.
func (s *LabelService) GenerateBadgeLabel(ctx context.Context, badgeID string) (string, string, error) {
	if !badgeIDPattern.MatchString(badgeID) {
		return "", "", &ValidationError{Fields: map[string]string{"numeroLegajo": "El número de legajo debe tener entre 5 y 6 dígitos"}}
	}

	status, err := s.resolver.Resolve(ctx, badgeID)
	if err != nil {
		return "", "", err
	}

	payload := map[string]any{
		"numeroLegajo": badgeID,
		"estado":       status.State,
		"timestamp":    time.Now().Unix(),
		"nonce":        s.generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	token := base64.URLEncoding.EncodeToString(jsonData)

	if s.redis != nil {
		key := fmt.Sprintf("label:%s", token)
		if err := s.redis.Set(ctx, key, jsonData, s.ttl).Err(); err != nil {
			return "", "", err
		}
	}

	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(s.size)); err != nil {
		return "", "", err
	}

	return token, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// VerifyBadgeLabel resolves a scanned label token. Labels stay valid for
// repeat scans until the TTL expires.
func (s *LabelService) VerifyBadgeLabel(ctx context.Context, token string) (map[string]any, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("verificación de etiquetas no disponible")
	}

	key := fmt.Sprintf("label:%s", token)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("etiqueta inválida o expirada")
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LabelService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
