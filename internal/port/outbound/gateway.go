package outbound

import (
	"context"

	"github.com/feastflow/storefront/internal/domain/analytics"
	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/order"
	"github.com/feastflow/storefront/internal/domain/session"
)

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	Credential string
	Identity   session.Identity
}

// Gateway is the typed boundary to the remote REST API.
//
// Every call attaches the current credential when one exists. Failures
// are *AuthError or *GatewayError.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context) (*session.Identity, error)

	ListMenu(ctx context.Context) ([]menu.Item, error)
	CreateMenuItem(ctx context.Context, p menu.Payload) (*menu.Item, error)
	UpdateMenuItem(ctx context.Context, id string, p menu.Payload) (*menu.Item, error)
	DeleteMenuItem(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, d order.Draft) (*order.Order, error)
	ListMyOrders(ctx context.Context) ([]order.Order, error)
	ListAllOrders(ctx context.Context, page int) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status order.Status) error

	GetAnalytics(ctx context.Context, startDate, endDate string) (*analytics.Report, error)
}

// CredentialSource supplies the bearer credential for outgoing requests.
// An empty string means no credential is attached.
type CredentialSource interface {
	Credential() string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func() string

// Credential implements CredentialSource.
func (f CredentialFunc) Credential() string { return f() }
