// Package mocks provides gomock implementations of the auth ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	provider := mocks.NewMockOIDCProvider(ctrl)
//	provider.EXPECT().Validate(gomock.Any(), "access").Return(true, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=oidc_provider_mock.go github.com/target/tenant-auth/internal/ports OIDCProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/target/tenant-auth/internal/ports SessionStore,SessionStoreConnector
