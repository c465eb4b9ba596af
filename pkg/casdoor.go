package pkg

import (
	"github.com/SAP-F-2025/lesson-assessment-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
)

// NewCasdoorClient returns nil when bearer-token identity is not configured.
func NewCasdoorClient(cfg *config.Config) *casdoorsdk.Client {
	c := cfg.Casdoor
	if !c.Enabled() {
		return nil
	}
	return casdoorsdk.NewClient(c.Endpoint, c.ClientID, c.ClientSecret, c.Certificate, c.OrganizationName, c.ApplicationName)
}
