// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD route-template" to the required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"GET /healthz": SecurityPublic,

	// Ledger link - Access Protected
	"POST /api/v1/ledger/link":             SecurityAccess,
	"PUT /api/v1/ledger/authorized-seller": SecurityAccess,
	"GET /api/v1/ledger/authorized-seller": SecurityPublic,

	// Sales - reads Public, writes Access Protected
	"GET /api/v1/sales":                   SecurityPublic,
	"GET /api/v1/sales/{id}":              SecurityPublic,
	"POST /api/v1/sales":                  SecurityAccess,
	"POST /api/v1/sales/batch":            SecurityAccess,
	"POST /api/v1/sales/{id}/investments": SecurityAccess,
	"POST /api/v1/sales/{id}/finalize":    SecurityAccess,
	"POST /api/v1/sales/{id}/withdraw":    SecurityAccess,
	"POST /api/v1/sales/{id}/refund":      SecurityAccess,
	"POST /api/v1/sales/{id}/sweep":       SecurityAccess,
	"PUT /api/v1/sales/{id}/uri":          SecurityAccess,

	"GET /api/v1/sales/{id}/contributions/{account}": SecurityPublic,

	// Shares
	"POST /api/v1/shares/approvals":              SecurityAccess,
	"GET /api/v1/shares/{id}":                    SecurityPublic,
	"GET /api/v1/shares/{id}/balances/{account}": SecurityPublic,

	// Cars and rewards
	"GET /api/v1/cars":                        SecurityPublic,
	"GET /api/v1/cars/{id}":                   SecurityPublic,
	"POST /api/v1/cars":                       SecurityAccess,
	"POST /api/v1/cars/{id}/lock":             SecurityAccess,
	"POST /api/v1/cars/{id}/unlock":           SecurityAccess,
	"POST /api/v1/cars/{id}/rent":             SecurityAccess,
	"POST /api/v1/cars/{id}/claim":            SecurityAccess,
	"POST /api/v1/cars/{id}/withdraw":         SecurityAccess,
	"GET /api/v1/cars/{id}/rewards/{account}": SecurityPublic,
	"GET /api/v1/rewards/unallocated":         SecurityPublic,
	"POST /api/v1/rewards/sweep":              SecurityAccess,

	// Journal and events
	"GET /api/v1/accounts/{account}/balance":      SecurityAccess,
	"GET /api/v1/accounts/{account}/transactions": SecurityAccess,
	"GET /api/v1/accounts/{account}/summary":      SecurityAccess,
	"GET /api/v1/events":                          SecurityPublic,
}

// GetSecurityLevel returns the security level for a given method and route
func GetSecurityLevel(method, route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
