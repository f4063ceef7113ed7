package smoke

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// malformations break a valid query in the ways a broken client might.
var malformations = []func(url.Values){
	func(q url.Values) { q.Del("points") },
	func(q url.Values) { q.Set("userId", "not-a-number") },
	func(q url.Values) { q.Set("duration", "12.5") },
	func(q url.Values) { q.Set("chatId", "") },
	func(q url.Values) { q.Set("level", "NaN") },
}

// Generate builds the valid and malformed submissions for one run.
func Generate(ctx context.Context, config *Config, stats *Stats) []Submission {
	subs := make([]Submission, 0, config.Submissions+config.Malformed)

	for range config.Submissions {
		userID := int64(randomInt(config.Players) + 1)
		points := randomInt(maxPoints)
		q := submitQuery(config.ChatID, userID, points)
		subs = append(subs, Submission{
			ID:     uuid.NewString(),
			Query:  q.Encode(),
			UserID: userID,
			Points: points,
		})
	}

	for i := range config.Malformed {
		q := submitQuery(config.ChatID, int64(randomInt(config.Players)+1), randomInt(maxPoints))
		malformations[i%len(malformations)](q)
		subs = append(subs, Submission{
			ID:        uuid.NewString(),
			Query:     q.Encode(),
			Malformed: true,
		})
	}

	stats.Generated = len(subs)
	logger.Get().Info(ctx, "submissions generated",
		logger.Int("valid", config.Submissions),
		logger.Int("malformed", config.Malformed),
	)
	return subs
}

func submitQuery(chatID, userID int64, points int) url.Values {
	q := url.Values{}
	q.Set("chatId", strconv.FormatInt(chatID, 10))
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("points", strconv.Itoa(points))
	q.Set("figures", strconv.Itoa(randomInt(maxFigures)))
	q.Set("lines", strconv.Itoa(randomInt(maxLines)))
	q.Set("level", strconv.Itoa(randomInt(maxLevel)+1))
	q.Set("duration", strconv.Itoa(randomInt(maxDuration)))
	return q
}

// BestByUser returns the highest generated score per user.
func BestByUser(subs []Submission) map[int64]int {
	best := make(map[int64]int)
	for _, s := range subs {
		if s.Malformed {
			continue
		}
		if cur, ok := best[s.UserID]; !ok || s.Points > cur {
			best[s.UserID] = s.Points
		}
	}
	return best
}

func (s Submission) String() string {
	return fmt.Sprintf("%s?%s", SubmitPath, s.Query)
}
