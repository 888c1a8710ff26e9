package app

import (
	"context"
	"strconv"
	"strings"
)

// EmailRegistry maps each user to the email they intend to pay with.
type EmailRegistry struct {
	docs *documents
	name string
}

func newEmailRegistry(docs *documents, name string) *EmailRegistry {
	return &EmailRegistry{docs: docs, name: name}
}

// Register stores email for the user, replacing any previous claim.
func (r *EmailRegistry) Register(ctx context.Context, userID, email string) error {
	unlock := r.docs.lock(r.name)
	defer unlock()

	emails, err := loadMapForUpdate[string](ctx, r.docs, r.name)
	if err != nil {
		return err
	}
	emails[userID] = email
	return saveDocument(ctx, r.docs, r.name, emails)
}

// Lookup returns every user that claimed exactly email (case-sensitive), lowest id first.
func (r *EmailRegistry) Lookup(ctx context.Context, email string) []string {
	if email == "" {
		return nil
	}
	emails := loadMap[string](ctx, r.docs, r.name)
	var ids []string
	for id, claimed := range emails {
		if claimed == email {
			ids = append(ids, id)
		}
	}
	sortUserIDs(ids)
	return ids
}

// compareUserIDs orders numeric ids numerically and everything else lexically.
// Numeric ids sort before non-numeric ones.
func compareUserIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
