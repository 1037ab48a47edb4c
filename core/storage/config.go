package storage

const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Config holds configuration for the cache backend.
type Config struct {
	// Backend selects where cached bytes live (disk, s3).
	Backend string `mapstructure:"backend" default:"disk"`
	// Dir is the cache root for the disk backend.
	Dir string `mapstructure:"dir" default:"/opt/drive-cache/data"`
	// Endpoint is the URL of the object storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket holding the cache.
	Bucket string `mapstructure:"bucket" default:"drive-cache"`
	// Prefix is prepended to every object key in the bucket.
	Prefix string `mapstructure:"prefix" default:""`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
