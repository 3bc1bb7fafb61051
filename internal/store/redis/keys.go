package redis

const (
	// KeyPrefixPolicy is the prefix for per-destination embed policy keys
	KeyPrefixPolicy = "proxyembed:policy:"
)

// PolicyKey returns the Redis key for a destination's embed policy
func PolicyKey(destination string) string {
	return KeyPrefixPolicy + destination
}
