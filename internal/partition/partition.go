// Package partition divides a centralized dataset into per-client shards for
// federated training simulation.
//
// Two modes are supported. The contiguous mode cuts the (optionally shuffled)
// rows into NumClients nearly equal chunks; with n = q*k + r rows the first
// k-r chunks hold q rows and the last r chunks hold q+1. The stratified mode
// deals the rows of each label class across the clients in turn so every
// shard approximates the global label balance.
//
// Shards never overlap and together hold every input row exactly once.
package partition

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/fedfraud/fedfraud/internal/dataset"
	"github.com/fedfraud/fedfraud/internal/logging"
)

var (
	// ErrInvalidClients is returned when NumClients is less than one.
	ErrInvalidClients = errors.New("number of clients must be at least 1")
	// ErrLengthMismatch is returned when features and labels differ in length.
	ErrLengthMismatch = errors.New("features and labels have different lengths")
	// ErrTooManyClients is returned when there are fewer rows than clients.
	ErrTooManyClients = errors.New("more clients than rows")
)

// MinorityClassError is returned in stratified mode when a label class has
// fewer rows than there are clients.
type MinorityClassError struct {
	NumClients int
	Label      float64
	Count      int
}

func (e *MinorityClassError) Error() string {
	return fmt.Sprintf("cannot stratify into %d clients: label %v has only %d rows", e.NumClients, e.Label, e.Count)
}

// Options controls how rows are assigned to clients.
type Options struct {
	NumClients int
	Shuffle    bool
	Seed       int64
	Stratify   bool
}

// Shard is the local dataset of one simulated client.
type Shard struct {
	X [][]float64
	Y []float64
}

// Len returns the number of rows in the shard.
func (s Shard) Len() int { return len(s.Y) }

// FraudRate returns the share of positive labels in the shard.
func (s Shard) FraudRate() float64 { return dataset.PositiveRate(s.Y) }

// Split partitions x and y into opts.NumClients shards and logs the size and
// fraud rate of each.
func Split(x [][]float64, y []float64, opts Options, logger hclog.Logger) ([]Shard, error) {
	logger = logging.OrNull(logger)

	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows vs %d labels", ErrLengthMismatch, len(x), len(y))
	}
	parts, err := Indices(y, opts)
	if err != nil {
		return nil, err
	}

	shards := make([]Shard, len(parts))
	for i, idx := range parts {
		s := Shard{
			X: make([][]float64, len(idx)),
			Y: make([]float64, len(idx)),
		}
		for j, r := range idx {
			s.X[j] = x[r]
			s.Y[j] = y[r]
		}
		shards[i] = s
		logger.Info("client data", "client", i+1, "size", s.Len(), "fraud_rate", s.FraudRate())
	}
	return shards, nil
}

// Indices returns the row indices assigned to each client. Only the labels
// are needed, so callers can partition any set of parallel columns.
func Indices(y []float64, opts Options) ([][]int, error) {
	k, n := opts.NumClients, len(y)
	if k < 1 {
		return nil, ErrInvalidClients
	}
	if k > n {
		return nil, fmt.Errorf("%w: %d clients for %d rows", ErrTooManyClients, k, n)
	}

	var rng *rand.Rand
	if opts.Shuffle {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	if opts.Stratify {
		return stratified(y, k, rng)
	}
	return contiguous(n, k, rng), nil
}

func contiguous(n, k int, rng *rand.Rand) [][]int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	q, r := n/k, n%k
	parts := make([][]int, k)
	start := 0
	for i := range parts {
		size := q
		if i >= k-r {
			size++
		}
		parts[i] = order[start : start+size : start+size]
		start += size
	}
	return parts
}

func stratified(y []float64, k int, rng *rand.Rand) ([][]int, error) {
	byLabel := make(map[float64][]int)
	for i, v := range y {
		byLabel[v] = append(byLabel[v], i)
	}
	labels := make([]float64, 0, len(byLabel))
	for v := range byLabel {
		labels = append(labels, v)
	}
	slices.Sort(labels)

	for _, v := range labels {
		if c := len(byLabel[v]); c < k {
			return nil, &MinorityClassError{NumClients: k, Label: v, Count: c}
		}
	}

	parts := make([][]int, k)
	offset := 0
	for _, v := range labels {
		members := byLabel[v]
		if rng != nil {
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		}
		// Continue dealing where the previous class stopped so shard sizes
		// differ by at most one.
		for i, idx := range members {
			c := (offset + i) % k
			parts[c] = append(parts[c], idx)
		}
		offset = (offset + len(members)) % k
	}
	for _, p := range parts {
		slices.Sort(p)
	}
	return parts, nil
}

// Union concatenates shards back into one dataset in shard order.
func Union(shards []Shard) Shard {
	var u Shard
	for _, s := range shards {
		u.X = append(u.X, s.X...)
		u.Y = append(u.Y, s.Y...)
	}
	return u
}
