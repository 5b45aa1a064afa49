package security

import "crypto/subtle"

const (
	PermCartWrite     = "cart.write"
	PermCheckoutWrite = "checkout.write"
	PermSalesRead     = "sales.read"
)

// Client is a registered POS terminal or service account. Terminals are bound
// to one shop and sign in as one staff user.
type Client struct {
	ID      string
	Secret  string
	ShopID  string
	UserID  string
	Perms   []string
	Enabled bool
}

// In-memory client registry (replace with DB/config later)
var Clients = map[string]Client{
	"pos-terminal-1": {
		ID: "pos-terminal-1", Secret: "pos-terminal-1-secret",
		ShopID: "shop-001", UserID: "staff-001",
		Perms:   []string{PermCartWrite, PermCheckoutWrite, PermSalesRead},
		Enabled: true,
	},
	"pos-terminal-2": {
		ID: "pos-terminal-2", Secret: "pos-terminal-2-secret",
		ShopID: "shop-002", UserID: "staff-002",
		Perms:   []string{PermCartWrite, PermCheckoutWrite, PermSalesRead},
		Enabled: true,
	},
	"svc-reporting": {
		ID: "svc-reporting", Secret: "reporting-secret",
		ShopID: "shop-001", UserID: "svc-reporting",
		Perms:   []string{PermSalesRead},
		Enabled: true,
	},
}

// Authenticate looks up an enabled client and checks its secret.
func Authenticate(id, secret string) (Client, bool) {
	cl, ok := Clients[id]
	if !ok || !cl.Enabled {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cl.Secret)) != 1 {
		return Client{}, false
	}
	return cl, true
}
