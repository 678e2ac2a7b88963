package avatar

import (
	"fmt"
	"strconv"
)

const cdnBase = "https://cdn.discordapp.com"

// URL returns the CDN address of a user's avatar. Users without a custom
// hash get one of the embedded default avatars.
func URL(userID, hash, discriminator string) string {
	if hash != "" {
		return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBase, userID, hash)
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, defaultIndex(userID, discriminator))
}

// defaultIndex picks the default avatar. Legacy accounts key it on the
// discriminator; migrated accounts (discriminator "0") on the snowflake.
func defaultIndex(userID, discriminator string) uint64 {
	if d, err := strconv.ParseUint(discriminator, 10, 16); err == nil && d != 0 {
		return d % 5
	}
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return 0
	}
	return (id >> 22) % 6
}
