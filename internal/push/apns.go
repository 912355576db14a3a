package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
	"golang.org/x/sync/errgroup"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

const apnsConcurrency = 8

type apnsPusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsProvider sends alerts to iOS devices over HTTP/2.
type APNsProvider struct {
	client apnsPusher
	topic  string
}

// NewAPNsProvider prefers token (.p8) auth and falls back to a .p12 certificate.
func NewAPNsProvider(cfg config.APNsConfig) (*APNsProvider, error) {
	if cfg.BundleID == "" {
		return nil, errors.New("apns bundle id is required")
	}

	var client *apns2.Client
	switch {
	case cfg.KeyPath != "":
		authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load apns auth key: %w", err)
		}
		client = apns2.NewTokenClient(&token.Token{
			AuthKey: authKey,
			KeyID:   cfg.KeyID,
			TeamID:  cfg.TeamID,
		})
	case cfg.CertPath != "":
		cert, err := certificate.FromP12File(cfg.CertPath, cfg.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load apns certificate: %w", err)
		}
		client = apns2.NewClient(cert)
	default:
		return nil, errors.New("apns credentials are not configured")
	}

	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	l := log.L()
	l.Info().Str("topic", cfg.BundleID).Bool("production", cfg.Production).Msg("apns provider initialized")

	return &APNsProvider{client: client, topic: cfg.BundleID}, nil
}

func (p *APNsProvider) Name() string { return "apns" }

func (p *APNsProvider) payload(n Notification) *payload.Payload {
	pl := payload.NewPayload().AlertTitle(n.Title).AlertBody(n.Body)
	if n.Sound != "" {
		pl = pl.Sound(n.Sound)
	}
	if n.Badge > 0 {
		pl = pl.Badge(n.Badge)
	}
	for k, v := range n.Data {
		pl = pl.Custom(k, v)
	}
	return pl
}

// Send pushes to every token and collects per-device failures.
func (p *APNsProvider) Send(ctx context.Context, n Notification, tokens []string) (*Result, error) {
	pl := p.payload(n)
	result := &Result{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(apnsConcurrency)

	for _, t := range tokens {
		g.Go(func() error {
			res, err := p.client.PushWithContext(gctx, &apns2.Notification{
				DeviceToken: t,
				Topic:       p.topic,
				Payload:     pl,
				PushType:    apns2.PushTypeAlert,
				Priority:    apns2.PriorityHigh,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed = append(result.Failed, Failure{Device: t, Reason: err.Error()})
			case !res.Sent():
				result.Failed = append(result.Failed, Failure{Device: t, Status: res.StatusCode, Reason: res.Reason})
			default:
				result.Sent++
			}
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}
