// internal/workers/sync/sync-client/models.go
package syncclient

type Input struct {
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName,omitempty"`
	SiteURL    string `json:"siteUrl"`
}

type Output struct {
	Synced     int  `json:"synced"`
	Skipped    int  `json:"skipped"`
	NoticeSent bool `json:"noticeSent"`
}
