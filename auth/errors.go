package auth

import "errors"

var errProviderRequired = errors.New("[auth.NewCoordinator] provider is required")
