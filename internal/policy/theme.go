package policy

import "github.com/suteetoe/tenantstarter/internal/model"

// Theme is the branding shown for a tenant. Values are copied from the
// tenant, so a Theme never changes after it is built.
type Theme struct {
	SiteHeader   string `json:"site_header"`
	SiteTitle    string `json:"site_title"`
	IndexTitle   string `json:"index_title"`
	TenantName   string `json:"tenant_name"`
	PrimaryColor string `json:"primary_color"`
	LogoPath     string `json:"logo_path,omitempty"`
}

var (
	publicTitles = Theme{
		SiteHeader: "Main Site Administration",
		SiteTitle:  "Starter Administration",
		IndexTitle: "Administration Dashboard",
	}
	clientTitles = Theme{
		SiteHeader: "Client Tenant Administration",
		SiteTitle:  "Client Administration Area",
		IndexTitle: "Client Dashboard",
	}
)

// ThemeFor builds the theme for t. A nil tenant gets the public titles.
func ThemeFor(t *model.Tenant) Theme {
	theme := clientTitles
	if t == nil || t.IsPublic() {
		theme = publicTitles
	}
	theme.PrimaryColor = model.DefaultPrimaryColor
	theme.TenantName = "Starter"
	if t == nil {
		return theme
	}
	theme.TenantName = t.Name
	if t.PrimaryColor != "" {
		theme.PrimaryColor = t.PrimaryColor
	}
	theme.LogoPath = t.LogoPath
	return theme
}
