package smoke

import "fmt"

// VerifyLeaderboard checks the invariants every leaderboard must hold: ranks
// run 1..n, no score is zero and scores never increase. For players this run
// submitted for, the reported score is at least the best submitted one.
func VerifyLeaderboard(entries []Entry, submitted map[int64]int) error {
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
		if e.Score == 0 {
			return fmt.Errorf("user %d listed with a zero score", e.UserID)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("score %d at rank %d exceeds %d at rank %d",
				e.Score, e.Rank, entries[i-1].Score, entries[i-1].Rank)
		}
		if best, ok := submitted[e.UserID]; ok && e.Score < best {
			return fmt.Errorf("user %d listed with %d, below submitted %d", e.UserID, e.Score, best)
		}
	}
	return nil
}
