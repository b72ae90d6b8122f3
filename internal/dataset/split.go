package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	mapset "github.com/deckarep/golang-set"
)

const (
	// DefaultSeed keeps splits reproducible across runs
	DefaultSeed int64 = 42

	// ContinuousThreshold is the number of distinct numeric values above which a
	// target is treated as continuous and stratification is disabled.
	ContinuousThreshold = 10
)

// SplitOptions configures Split.
type SplitOptions struct {
	Target       string
	TestFraction float64
	Stratify     bool
	// Seed 0 selects DefaultSeed
	Seed int64
}

// SplitResult holds the two partitions and whether stratified sampling was used.
type SplitResult struct {
	Train      *Table
	Test       *Table
	Stratified bool
}

// IsContinuous reports whether c is numeric with more than ContinuousThreshold
// distinct values. Nulls count as one extra value.
func IsContinuous(c *Column) bool {
	if c.Kind != KindNumber {
		return false
	}
	n := DistinctCount(c)
	if c.NullCount() > 0 {
		n++
	}
	return n > ContinuousThreshold
}

// DistinctCount returns the number of distinct non-null values in c
func DistinctCount(c *Column) int {
	set := mapset.NewThreadUnsafeSet()
	for _, cell := range c.Cells {
		if !cell.Null {
			set.Add(cellKey(c.Kind, cell))
		}
	}
	return set.Cardinality()
}

// Split partitions t into train and test tables. Both outputs hold the feature
// columns in their original order followed by the target column.
func Split(t *Table, opts SplitOptions) (*SplitResult, error) {
	target, ok := t.Column(opts.Target)
	if !ok {
		return nil, fmt.Errorf("%w: target column '%s' not found in dataframe", ErrNotFound, opts.Target)
	}
	if !(opts.TestFraction > 0 && opts.TestFraction < 1) {
		return nil, fmt.Errorf("%w: test size must be between 0 and 1, got %v", ErrInvalidArgument, opts.TestFraction)
	}

	n := t.NumRows()
	// tolerance absorbs products such as 0.2*30 landing just above an integer
	nTest := int(math.Ceil(opts.TestFraction*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, fmt.Errorf("%w: with n_samples=%d and test_size=%v the resulting train set or test set would be empty",
			ErrInvalidArgument, n, opts.TestFraction)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := rand.New(rand.NewSource(seed))

	stratified := opts.Stratify && !IsContinuous(target)
	var trainRows, testRows []int
	if stratified {
		var err error
		trainRows, testRows, err = stratifiedIndices(target, nTrain, nTest, rng)
		if err != nil {
			return nil, err
		}
	} else {
		perm := rng.Perm(n)
		testRows, trainRows = perm[:nTest], perm[nTest:]
	}

	order := make([]string, 0, t.NumCols())
	for _, name := range t.ColumnNames() {
		if name != opts.Target {
			order = append(order, name)
		}
	}
	order = append(order, opts.Target)
	arranged, err := t.SelectColumns(order)
	if err != nil {
		return nil, err
	}

	return &SplitResult{
		Train:      arranged.SelectRows(trainRows),
		Test:       arranged.SelectRows(testRows),
		Stratified: stratified,
	}, nil
}

// stratifiedIndices assigns rows to train and test so that every class of the
// target appears in both in proportion to its overall frequency.
func stratifiedIndices(target *Column, nTrain, nTest int, rng *rand.Rand) ([]int, []int, error) {
	classes := make(map[string][]int)
	var order []string
	for i, cell := range target.Cells {
		k := cellKey(target.Kind, cell)
		if _, ok := classes[k]; !ok {
			order = append(order, k)
		}
		classes[k] = append(classes[k], i)
	}
	// deterministic class order independent of row order
	sort.Strings(order)

	for _, k := range order {
		if len(classes[k]) < 2 {
			return nil, nil, fmt.Errorf("%w: the least populated class in y has only 1 member, which is too few; the minimum number of groups for any class cannot be less than 2",
				ErrInvalidArgument)
		}
	}
	if nTest < len(order) {
		return nil, nil, fmt.Errorf("%w: the test_size = %d should be greater or equal to the number of classes = %d",
			ErrInvalidArgument, nTest, len(order))
	}
	if nTrain < len(order) {
		return nil, nil, fmt.Errorf("%w: the train_size = %d should be greater or equal to the number of classes = %d",
			ErrInvalidArgument, nTrain, len(order))
	}

	counts := make([]int, len(order))
	for i, k := range order {
		counts[i] = len(classes[k])
	}
	testPer := allocate(counts, nTest)

	var trainRows, testRows []int
	for i, k := range order {
		rows := append([]int(nil), classes[k]...)
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })
		testRows = append(testRows, rows[:testPer[i]]...)
		trainRows = append(trainRows, rows[testPer[i]:]...)
	}
	rng.Shuffle(len(trainRows), func(a, b int) { trainRows[a], trainRows[b] = trainRows[b], trainRows[a] })
	rng.Shuffle(len(testRows), func(a, b int) { testRows[a], testRows[b] = testRows[b], testRows[a] })
	return trainRows, testRows, nil
}

// allocate distributes total draws across classes proportionally to counts:
// each class gets the floor of its share, and the remainder goes to the classes
// with the largest fractional parts (earlier classes win ties). No class gets
// more than it has.
func allocate(counts []int, total int) []int {
	n := 0
	for _, c := range counts {
		n += c
	}
	out := make([]int, len(counts))
	type frac struct {
		idx int
		rem float64
	}
	fracs := make([]frac, len(counts))
	assigned := 0
	for i, c := range counts {
		share := float64(c) * float64(total) / float64(n)
		out[i] = int(math.Floor(share))
		assigned += out[i]
		fracs[i] = frac{idx: i, rem: share - float64(out[i])}
	}
	sort.SliceStable(fracs, func(a, b int) bool { return fracs[a].rem > fracs[b].rem })
	for left := total - assigned; left > 0; {
		progressed := false
		for _, f := range fracs {
			if left == 0 {
				break
			}
			if out[f.idx] < counts[f.idx] {
				out[f.idx]++
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}
