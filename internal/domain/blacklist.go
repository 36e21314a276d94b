package domain

import (
	"strings"
	"time"
)

type BlacklistEntry struct {
	ID        string
	Email     *string
	Phone     *string
	Reason    string
	Active    bool
	CreatedAt time.Time
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}
