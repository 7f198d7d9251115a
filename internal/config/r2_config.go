package config

import "os"

// R2 object-storage settings for the JWT secret disaster-recovery path.
// All values come from the environment; an empty endpoint disables the
// fallback entirely.
var (
	R2Endpoint   = os.Getenv("R2_ENDPOINT")
	R2AccessKey  = os.Getenv("R2_ACCESS_KEY")
	R2SecretKey  = os.Getenv("R2_SECRET_KEY")
	R2BucketName = envOr("R2_BUCKET", "pam-config")
	R2Region     = envOr("R2_REGION", "auto")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
