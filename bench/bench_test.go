package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/fourply/fourply/board"
	"github.com/fourply/fourply/book"
	"github.com/fourply/fourply/negamax"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

const testSet = `# a few short positions
445566 18
4455 18

33445 -18
4455667 -18
`

func TestParseCases(t *testing.T) {
	cases, err := ParseCases(strings.NewReader(testSet))
	assert.NoError(t, err)
	expected := []Case{
		{Line: 2, Moves: "445566", Expected: 18},
		{Line: 3, Moves: "4455", Expected: 18},
		{Line: 5, Moves: "33445", Expected: -18},
		{Line: 6, Moves: "4455667", Expected: -18},
	}
	if diff := cmp.Diff(expected, cases); diff != "" {
		t.Errorf("cases mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCasesErrors(t *testing.T) {
	is := is.New(t)
	_, err := ParseCases(strings.NewReader("445566 18\n4455\n"))
	is.True(errors.Is(err, ErrMalformedLine))
	is.True(strings.HasPrefix(err.Error(), "line 2:"))

	_, err = ParseCases(strings.NewReader("445566 x\n"))
	is.True(errors.Is(err, ErrMalformedLine))

	_, err = ParseCases(strings.NewReader("# ok\n489 3\n"))
	is.True(errors.Is(err, board.ErrInvalidColumn))
	is.True(strings.HasPrefix(err.Error(), "line 2:"))
}

func runTestSet(t *testing.T, r *Runner, set string) (*Summary, [][]string) {
	t.Helper()
	cases, err := ParseCases(strings.NewReader(set))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	sum, err := r.Run(context.Background(), cases, &out)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return sum, rows
}

func TestRun(t *testing.T) {
	r := &Runner{Threads: 2, TableSize: negamax.MinTableSize}
	sum, rows := runTestSet(t, r, testSet)

	assert.Equal(t, 4, sum.Positions)
	assert.Equal(t, 0, sum.Mismatches)
	assert.Empty(t, sum.Failed)
	assert.True(t, sum.TotalNodes > 0)
	assert.True(t, sum.MeanMicros >= 0)

	assert.Len(t, rows, 5)
	assert.Equal(t, []string{"moves", "microseconds", "nodes", "score", "expected", "ok"}, rows[0])
	// rows keep the input order whatever thread solved them
	got := make([]string, 0, 4)
	for _, row := range rows[1:] {
		got = append(got, row[0]+" "+row[3]+" "+row[5])
	}
	assert.Equal(t, []string{"445566 18 true", "4455 18 true", "33445 -18 true", "4455667 -18 true"}, got)
}

func TestRunMismatch(t *testing.T) {
	r := &Runner{Threads: 1, TableSize: negamax.MinTableSize}
	sum, rows := runTestSet(t, r, "445566 18\n4455 17\n")
	assert.Equal(t, 1, sum.Mismatches)
	assert.Equal(t, []string{"line 2: 4455 got 18 want 17"}, sum.Failed)
	assert.Equal(t, "false", rows[2][5])
}

func TestRunWeak(t *testing.T) {
	r := &Runner{Threads: 3, TableSize: negamax.MinTableSize, Weak: true}
	sum, rows := runTestSet(t, r, testSet)
	assert.Equal(t, 0, sum.Mismatches)
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "-1", rows[3][3])
}

func TestRunCancelled(t *testing.T) {
	is := is.New(t)
	cases := []Case{{Line: 1, Moves: "", Expected: 1}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Threads: 1, TableSize: negamax.MinTableSize}
	_, err := r.Run(ctx, cases, nil)
	is.True(errors.Is(err, context.Canceled))
}

func TestRunBadTableSize(t *testing.T) {
	is := is.New(t)
	r := &Runner{Threads: 1, TableSize: 1000}
	_, err := r.Run(context.Background(), nil, nil)
	is.True(errors.Is(err, negamax.ErrBadTableSize))
}

func TestSummaryReports(t *testing.T) {
	is := is.New(t)
	r := &Runner{Threads: 1, TableSize: negamax.MinTableSize}
	sum, _ := runTestSet(t, r, testSet)

	var buf bytes.Buffer
	is.NoErr(sum.WriteYAML(&buf))
	var decoded map[string]any
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &decoded))
	is.Equal(decoded["positions"], 4)
	is.Equal(decoded["mismatches"], 0)
	_, hasFailed := decoded["failed"]
	is.True(!hasFailed)

	buf.Reset()
	is.NoErr(sum.Histogram(&buf))
	is.True(buf.Len() > 0)

	is.True(strings.HasPrefix(sum.String(), "positions: 4, mismatches: 0\n"))
}

func TestSummaryGroupsDigits(t *testing.T) {
	is := is.New(t)
	sum := &Summary{Positions: 1200, TotalNodes: 1234567}
	is.True(strings.Contains(sum.String(), "positions: 1,200"))
	is.True(strings.Contains(sum.String(), "nodes: 1,234,567"))
}

func TestTiming(t *testing.T) {
	is := is.New(t)
	var tm timing
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		tm.push(v)
	}
	is.Equal(tm.n, 8)
	is.True(tm.mean > 4.999 && tm.mean < 5.001)
	is.Equal(tm.min, 2.0)
	is.Equal(tm.max, 9.0)
	is.True(tm.variance() > 4.57 && tm.variance() < 4.58)
	// z for 95% is about 1.96
	z := zValue(95)
	is.True(z > 1.959 && z < 1.961)
	is.True(tm.confidence(95) > 0)
}

func TestRunStoresInBook(t *testing.T) {
	is := is.New(t)
	b, err := book.Open(context.Background(), ":memory:")
	is.NoErr(err)
	defer b.Close()

	r := &Runner{Threads: 2, TableSize: negamax.MinTableSize, Book: b}
	runTestSet(t, r, testSet)
	n, err := b.Len(context.Background())
	is.NoErr(err)
	is.Equal(n, 4)
	p, err := board.FromMoveSequence("4455")
	is.NoErr(err)
	v, ok, err := b.Get(context.Background(), p)
	is.NoErr(err)
	is.True(ok)
	is.Equal(v, 36)
}

func TestSetHash(t *testing.T) {
	is := is.New(t)
	r := &Runner{Threads: 1, TableSize: negamax.MinTableSize}
	a, _ := runTestSet(t, r, testSet)
	b, _ := runTestSet(t, r, "# same positions, other comments\n"+testSet)
	c, _ := runTestSet(t, r, "445566 18\n")
	is.Equal(len(a.SetHash), 16)
	is.Equal(a.SetHash, b.SetHash)
	is.True(a.SetHash != c.SetHash)
}
