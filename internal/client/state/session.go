package state

import (
	"context"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
	"github.com/dmitrijs2005/sitecrew/internal/client/repositories/metadata"
)

type SessionStore struct {
	meta metadata.Repository
}

// Load returns the stored session or ErrNoSession when the token or the
// user id is missing.
func (s *SessionStore) Load(ctx context.Context) (*models.Session, error) {
	var sess models.Session
	fields := []struct {
		key string
		dst *string
	}{
		{KeyAuthToken, &sess.AuthToken},
		{KeyUserID, &sess.UserID},
		{KeyUserEmail, &sess.UserEmail},
		{KeyUserName, &sess.UserName},
		{KeyUserRole, &sess.UserRole},
	}
	for _, f := range fields {
		v, err := getString(ctx, s.meta, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	enforce, err := getBool(ctx, s.meta, KeyEnforceGeofence)
	if err != nil {
		return nil, err
	}
	sess.EnforceGeofence = enforce

	if !sess.Valid() {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *models.Session) error {
	values := map[string]string{
		KeyAuthToken: sess.AuthToken,
		KeyUserID:    sess.UserID,
		KeyUserEmail: sess.UserEmail,
		KeyUserName:  sess.UserName,
		KeyUserRole:  sess.UserRole,
	}
	for k, v := range values {
		if err := setString(ctx, s.meta, k, v); err != nil {
			return err
		}
	}
	return setBool(ctx, s.meta, KeyEnforceGeofence, sess.EnforceGeofence)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return deleteKeys(ctx, s.meta,
		KeyAuthToken, KeyUserID, KeyUserEmail, KeyUserName, KeyUserRole, KeyEnforceGeofence)
}
