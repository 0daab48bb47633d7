// internal/models/client.go
package models

// ClientSite is an end-customer website whose form submissions are reviewed
// here. WordPressURL is the site base used to resolve relative signature
// image paths; when it is empty, signature fields degrade to a placeholder.
type ClientSite struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WordPressURL string `json:"wordpressUrl"`
}
