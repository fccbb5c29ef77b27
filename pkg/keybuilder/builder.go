package keybuilder

import (
	"fmt"
)

const (
	Redis   string = "redis"
	Contact string = "contact"
)

func RedisContactKeyBuild(recipientID string) string {
	return fmt.Sprintf("%s:%s:%s", Redis, Contact, recipientID)
}
