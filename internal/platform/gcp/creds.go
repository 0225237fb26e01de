package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
)

// ClientOptionsFromEnv reads service account credentials either inline
// (GOOGLE_APPLICATION_CREDENTIALS_JSON) or from a file path. No options means
// application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	creds := envutil.First("GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS")
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
