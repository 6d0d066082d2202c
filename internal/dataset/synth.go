package dataset

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

var (
	transactionTypes = []string{"online", "instore", "transfer"}
	locations        = []string{"Lisbon", "Porto", "Faro", "Braga", "Coimbra", "Madrid", "London"}
	deviceTypes      = []string{"mobile", "desktop", "pos"}
)

// Synthesize generates n transactions with the required columns. Fraudulent
// rows follow clear patterns: high amounts, night hours, transfers, foreign
// locations and international flags. The same seed yields the same table.
func Synthesize(n int, fraudRate float64, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	numUsers := max(n/5, 1)

	rows := make([][]string, n)
	for i := range rows {
		isFraud := rng.Float64() < fraudRate

		var (
			amount        float64
			hour          int
			txType        string
			location      string
			international bool
		)
		if isFraud {
			amount = 2000 + rng.Float64()*8000
			hour = rng.Intn(6)
			txType = pick(rng, []string{"transfer", "transfer", "online"})
			location = pick(rng, locations[4:])
			international = rng.Float64() < 0.7
		} else {
			amount = 5 + rng.Float64()*500
			hour = 7 + rng.Intn(15)
			txType = pick(rng, transactionTypes)
			location = pick(rng, locations[:5])
			international = rng.Float64() < 0.1
		}

		ts := start.AddDate(0, 0, rng.Intn(30)).
			Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(3600))*time.Second)

		rows[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("U%03d", rng.Intn(numUsers)+1),
			strconv.FormatFloat(amount, 'f', 2, 64),
			txType,
			location,
			ts.Format("2006-01-02 15:04:05"),
			pick(rng, deviceTypes),
			strconv.Itoa(100 + rng.Intn(20)),
			boolDigit(international),
			boolDigit(isFraud),
		}
	}

	t, _ := NewTable(append([]string(nil), RequiredColumns...), rows)
	return t
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
