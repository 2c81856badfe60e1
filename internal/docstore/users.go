package docstore

import (
	"context"
	"time"

	"truvamate/internal/domain"
	"truvamate/internal/models"

	"cloud.google.com/go/firestore"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, wrap("get user", err, domain.ErrUserNotFound)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, domain.Persistence("decode user", err)
	}
	u.ID = snap.Ref.ID
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = s.users().Doc(id)
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, domain.Persistence("get users", err)
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var u models.User
		if err := snap.DataTo(&u); err != nil {
			return nil, domain.Persistence("decode user", err)
		}
		u.ID = snap.Ref.ID
		out[u.ID] = &u
	}
	return out, nil
}

// UpsertUser creates the user or refreshes its identity fields. Referral
// fields are left untouched.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	ref := s.users().Doc(u.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		now := time.Now().UTC()
		if isNotFound(err) {
			created := *u
			created.CreatedAt, created.UpdatedAt = now, now
			return tx.Create(ref, created)
		}
		if err != nil {
			return err
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "email", Value: u.Email},
			{Path: "name", Value: u.Name},
			{Path: "role", Value: u.Role},
			{Path: "updatedAt", Value: now},
		})
	})
	return wrap("upsert user", err, nil)
}

func (s *Store) SetFCMToken(ctx context.Context, userID, token string) error {
	_, err := s.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcmToken", Value: token},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return wrap("set fcm token", err, domain.ErrUserNotFound)
}
