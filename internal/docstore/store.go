// Package docstore keeps the referral ledger in Cloud Firestore. Multi-document
// writes run inside RunTransaction so they commit or fail together.
package docstore

import (
	"context"
	"errors"
	"math"

	"truvamate/internal/domain"
	"truvamate/internal/models"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// NewFromApp opens Firestore through the shared Firebase app.
func NewFromApp(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping reads a missing document to prove the backend answers.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.settings().Get(ctx)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (s *Store) users() *firestore.CollectionRef {
	return s.client.Collection(domain.CollectionUsers)
}

func (s *Store) codes() *firestore.CollectionRef {
	return s.client.Collection(domain.CollectionCodes)
}

func (s *Store) referrals() *firestore.CollectionRef {
	return s.client.Collection(domain.CollectionReferrals)
}

func (s *Store) transactions() *firestore.CollectionRef {
	return s.client.Collection(domain.CollectionTransactions)
}

func (s *Store) settings() *firestore.DocumentRef {
	return s.client.Collection(domain.CollectionSettings).Doc(domain.SettingReferral)
}

// GetSettings returns the stored referral settings or domain.ErrNotFound.
func (s *Store) GetSettings(ctx context.Context) (*models.ReferralSettings, error) {
	snap, err := s.settings().Get(ctx)
	if err != nil {
		return nil, wrap("get settings", err, domain.ErrNotFound)
	}
	var out models.ReferralSettings
	if err := snap.DataTo(&out); err != nil {
		return nil, domain.Persistence("decode settings", err)
	}
	applyLegacySettings(&out, snap.Data())
	return &out, nil
}

// Settings written before amounts moved to minor units carry whole-baht
// minOrderValue / maxCommissionPerReferral fields. They are converted to
// cents when the cents field is absent.
const (
	legacyMinOrderValue = "minOrderValue"
	legacyMaxCommission = "maxCommissionPerReferral"
)

func applyLegacySettings(out *models.ReferralSettings, data map[string]interface{}) {
	if _, ok := data["minOrderValueCents"]; !ok {
		if baht, ok := number(data[legacyMinOrderValue]); ok {
			out.MinOrderValueCents = bahtToCents(baht)
		}
	}
	if _, ok := data["maxCommissionCents"]; !ok {
		if baht, ok := number(data[legacyMaxCommission]); ok {
			out.MaxCommissionCents = bahtToCents(baht)
		}
	}
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func bahtToCents(baht float64) int64 {
	return int64(math.Round(baht * 100))
}

func (s *Store) SaveSettings(ctx context.Context, in models.ReferralSettings) error {
	_, err := s.settings().Set(ctx, in)
	return wrap("save settings", err, nil)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// wrap maps a missing document to notFound (when non-nil) and every other
// failure to a PersistenceError. Ledger sentinels pass through.
func wrap(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && isNotFound(err) {
		return notFound
	}
	return domain.Persistence(op, err)
}

// all drains a document iterator into T values.
func all[T any](it *firestore.DocumentIterator) ([]T, error) {
	defer it.Stop()
	var out []T
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
