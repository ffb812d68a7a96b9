package seed

import (
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

var firstNames = []string{
	"Ava", "Ben", "Chloe", "Diego", "Emma", "Finn", "Grace", "Hugo", "Isla", "Jack",
	"Kai", "Luna", "Mia", "Noah", "Olivia", "Priya", "Quinn", "Ravi", "Sofia", "Theo",
}

var lastNames = []string{
	"Garcia", "Nguyen", "Smith", "Kim", "Patel", "Lopez", "Chen", "Brown", "Wong", "Davis",
}

const digits = "0123456789"

func randomName(rng *rand.Rand) (first, last string) {
	return firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]
}

// RandomUser returns an unsaved staff member with a username derived from
// the name plus a few digits.
func RandomUser(rng *rand.Rand, password, emailDomain string, centerID int64) (*domain.User, error) {
	first, last := randomName(rng)

	var b strings.Builder
	b.WriteString(strings.ToLower(first))
	b.WriteString(strings.ToLower(last[:1]))
	for i := rng.Intn(3) + 1; i > 0; i-- {
		b.WriteByte(digits[rng.Intn(len(digits))])
	}
	username := b.String()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     first + " " + last,
		Email:        username + "@" + emailDomain,
		Role:         domain.RoleStaff,
		CenterID:     centerID,
	}, nil
}

// RandomRange picks a range of one to eight tokens that starts no earlier
// than lo and ends no later than hi.
func RandomRange(rng *rand.Rand, lo, hi slot.TimeToken) (slot.TimeToken, slot.TimeToken, error) {
	seq, err := slot.Interval(lo, hi)
	if err != nil {
		return lo, hi, err
	}
	starts := make([]slot.TimeToken, 0)
	for t := range seq {
		starts = append(starts, t)
	}

	i := rng.Intn(len(starts))
	n := min(rng.Intn(8)+1, len(starts)-i)
	start := starts[i]
	end := hi
	if i+n < len(starts) {
		end = starts[i+n]
	}
	return start, end, nil
}

// RandomWeekdays picks between one and seven distinct regular days with a
// Fisher-Yates shuffle.
func RandomWeekdays(rng *rand.Rand) []slot.DayToken {
	days := make([]slot.DayToken, 0, 7)
	for n := 1; n <= 7; n++ {
		days = append(days, slot.Regular(slot.FromISOWeekday(n)))
	}

	for i := len(days) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		days[i], days[j] = days[j], days[i]
	}

	return days[:rng.Intn(len(days))+1]
}

// RandomLocationName returns a classroom name such as "Room 3B".
func RandomLocationName(rng *rand.Rand) string {
	return fmt.Sprintf("Room %d%c", rng.Intn(9)+1, 'A'+rune(rng.Intn(4)))
}
