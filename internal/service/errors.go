package service

import "errors"

var (
	ErrItemNotFound           = errors.New("item not found in cart")
	ErrInvalidProduct         = errors.New("invalid product")
	ErrNotInitialized         = errors.New("cart store is not initialized in this context")
	ErrNotLoaded              = errors.New("cart has not been loaded from storage yet")
	ErrStorageRead            = errors.New("failed to read cart from storage")
	ErrStorageWrite           = errors.New("failed to write cart to storage")
	ErrMalformedPersistedData = errors.New("persisted cart data is malformed")
)
