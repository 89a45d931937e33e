package catalog

import "EasyDockerDeploy/internal/strutil"

// Application is one entry of the list. Optional fields are nil when absent
// and serialize as JSON null.
type Application struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Language        *string `json:"language"`
	LicenseType     *string `json:"license_type"`
	DockerReady     bool    `json:"docker_ready"`
	DockerURL       *string `json:"docker_url"`
	RepositoryURL   *string `json:"repository_url"`
	DeploymentGuide *string `json:"deployment_guide"`
}

// LanguageOr returns the language tag or fallback.
func (a Application) LanguageOr(fallback string) string {
	return strutil.Deref(a.Language, fallback)
}

// LicenseOr returns the license tag or fallback.
func (a Application) LicenseOr(fallback string) string {
	return strutil.Deref(a.LicenseType, fallback)
}

// Repository returns the repository URL, or "" when absent.
func (a Application) Repository() string {
	return strutil.Deref(a.RepositoryURL, "")
}

// Image returns the inferred Docker reference, or "" when none was found.
func (a Application) Image() string {
	return strutil.Deref(a.DockerURL, "")
}

func ptr(s string) *string {
	return &s
}
