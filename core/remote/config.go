package remote

// Config holds the Google API credentials and the watched folder.
type Config struct {
	// FolderID is the id of the watched root folder.
	FolderID string `mapstructure:"folder_id" default:""`
	// CredentialsFile is a service account JSON key. Takes precedence over
	// the OAuth client fields.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
	// ClientID, ClientSecret and RefreshToken identify an installed OAuth client.
	ClientID     string `mapstructure:"client_id" default:""`
	ClientSecret string `mapstructure:"client_secret" default:""`
	RefreshToken string `mapstructure:"refresh_token" default:""`
	// RetryMaxSeconds bounds the total time spent retrying one call.
	RetryMaxSeconds int `mapstructure:"retry_max_seconds" default:"30"`
}
