package domain

import (
	"context"
	"errors"
)

type UpsertProfileRequest struct {
	DisplayName string
	Email       string
	Phone       string
}

type Service interface {
	Upsert(ctx context.Context, req UpsertProfileRequest) (Profile, error)
	Get(ctx context.Context) (Profile, error)

	// StartOnboarding creates the connected processor account if the
	// caller has none yet and returns an onboarding link URL.
	StartOnboarding(ctx context.Context) (string, error)
}

var (
	ErrInvalidCaller = errors.New("invalid_caller")
	ErrInvalidName   = errors.New("invalid_display_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrNotFound      = errors.New("profile_not_found")
)
